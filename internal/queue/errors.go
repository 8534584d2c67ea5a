package queue

import "errors"

var (
	ErrQueueEmpty = errors.New("queue empty")
	ErrIDMismatch = errors.New("acknowledged aviso is not at the head of the queue")
)
