package codegen

// Order is the binding strength of a generated expression. Lower values
// bind tighter. Values sharing a tens digit belong to the same precedence
// class.
type Order int

const (
	OrderAtomic         Order = 0
	OrderMember         Order = 12
	OrderFunctionCall   Order = 20
	OrderIncrement      Order = 30
	OrderDecrement      Order = 31
	OrderLogicalNot     Order = 44
	OrderUnaryNegation  Order = 45
	OrderUnaryPlus      Order = 46
	OrderMultiplication Order = 51
	OrderDivision       Order = 52
	OrderModulus        Order = 53
	OrderSubtraction    Order = 61
	OrderAddition       Order = 62
	OrderRelational     Order = 80
	OrderEquality       Order = 90
	OrderLogicalAnd     Order = 130
	OrderLogicalOr      Order = 140
	OrderConditional    Order = 150
	OrderAssignment     Order = 160
	OrderNone           Order = 990
)

func (o Order) class() int { return int(o) / 10 }

// orderOverrides lists (outer, inner) pairs that are associative and never
// need parentheses even though they share a class.
var orderOverrides = map[[2]Order]bool{
	{OrderFunctionCall, OrderMember}:           true,
	{OrderFunctionCall, OrderFunctionCall}:     true,
	{OrderMember, OrderMember}:                 true,
	{OrderMember, OrderFunctionCall}:           true,
	{OrderLogicalNot, OrderLogicalNot}:         true,
	{OrderMultiplication, OrderMultiplication}: true,
	{OrderAddition, OrderAddition}:             true,
	{OrderLogicalAnd, OrderLogicalAnd}:         true,
	{OrderLogicalOr, OrderLogicalOr}:           true,
}

// needsParens reports whether an expression of order inner must be wrapped
// when placed in a slot of order outer.
func needsParens(outer, inner Order) bool {
	oc, ic := outer.class(), inner.class()
	if oc > ic {
		return false
	}
	if oc == ic && (outer == OrderAtomic || outer == OrderNone) {
		return false
	}
	return !orderOverrides[[2]Order{outer, inner}]
}
