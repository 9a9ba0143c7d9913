package server

import "sync"

type answer struct {
	text   string
	cancel bool
}

// InputQueue answers prompts from input submitted ahead of time through
// the Input procedure. A remote user cannot be asked synchronously, so a
// prompt with nothing queued is answered as cancelled.
type InputQueue struct {
	mu      sync.Mutex
	answers []answer
}

// Push queues an answer and returns the queue length.
func (q *InputQueue) Push(text string, cancel bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.answers = append(q.answers, answer{text: text, cancel: cancel})
	return len(q.answers)
}

// Len returns the number of queued answers.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.answers)
}

// Prompt implements intrinsic.Prompter.
func (q *InputQueue) Prompt(message string) (string, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.answers) == 0 {
		log.Infof("prompt %q: no input queued", message)
		return "", false, nil
	}
	a := q.answers[0]
	q.answers = q.answers[1:]
	return a.text, !a.cancel, nil
}
