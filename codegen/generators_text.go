package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/blockrun/blocks"
	"github.com/chazu/blockrun/compiler"
)

func init() {
	register("text", true, genText)
	register("text_join", true, genTextJoin)
	register("text_length", true, genTextLength)
	// Letter count of a string; an editor-local block with the same
	// output as text_length.
	register("sss", true, genTextLength)
	register("text_print", false, genTextPrint)
	register("text_prompt", true, genTextPrompt)
	register("text_prompt_ext", true, genTextPromptExt)
}

func genText(g *generator, b *blocks.Block) (string, Order, error) {
	text, _ := b.Field("TEXT")
	return compiler.QuoteString(text), OrderAtomic, nil
}

// numberedInputs returns the count of consecutive inputs named prefix0,
// prefix1, ... up to the highest index present.
func numberedInputs(b *blocks.Block, prefix string) int {
	n := 0
	for name := range b.Inputs {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		i, err := strconv.Atoi(name[len(prefix):])
		if err == nil && i >= 0 && i+1 > n {
			n = i + 1
		}
	}
	return n
}

func genTextJoin(g *generator, b *blocks.Block) (string, Order, error) {
	n := numberedInputs(b, "ADD")
	if n == 0 {
		return "''", OrderAtomic, nil
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		part, err := g.valueOr(b, "ADD"+strconv.Itoa(i), OrderNone, "''")
		if err != nil {
			return "", 0, err
		}
		parts = append(parts, "String("+part+")")
	}
	if n == 1 {
		return parts[0], OrderFunctionCall, nil
	}
	return strings.Join(parts, " + "), OrderAddition, nil
}

func genTextLength(g *generator, b *blocks.Block) (string, Order, error) {
	text, err := g.valueOr(b, "VALUE", OrderFunctionCall, "''")
	if err != nil {
		return "", 0, err
	}
	return text + ".length", OrderMember, nil
}

func genTextPrint(g *generator, b *blocks.Block) (string, Order, error) {
	msg, err := g.valueOr(b, "TEXT", OrderNone, "''")
	if err != nil {
		return "", 0, err
	}
	return "print(" + msg + ");\n", OrderNone, nil
}

func genTextPrompt(g *generator, b *blocks.Block) (string, Order, error) {
	text, _ := b.Field("TEXT")
	return promptCall(b, compiler.QuoteString(text))
}

func genTextPromptExt(g *generator, b *blocks.Block) (string, Order, error) {
	msg, err := g.valueOr(b, "TEXT", OrderNone, "''")
	if err != nil {
		return "", 0, err
	}
	return promptCall(b, msg)
}

func promptCall(b *blocks.Block, msg string) (string, Order, error) {
	code := "prompt(" + msg + ")"
	typ, ok := b.Field("TYPE")
	switch {
	case !ok || typ == "TEXT":
		return code, OrderFunctionCall, nil
	case typ == "NUMBER":
		return "Number(" + code + ")", OrderFunctionCall, nil
	}
	return "", 0, blockError(b, fmt.Sprintf("unknown prompt type %q", typ))
}
