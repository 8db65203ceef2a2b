package app

import "sync"

// chatQueue runs work for each chat strictly in submission order, one item
// at a time, while different chats proceed in parallel. A chat holds at most
// one of the limit slots, and only while one of its items is running, so a
// busy chat never starves the others or stalls Submit.
type chatQueue struct {
	mu      sync.Mutex
	pending map[int64][]func() // present while the chat's worker is alive
	slots   chan struct{}
	wg      sync.WaitGroup
}

func newChatQueue(limit int) *chatQueue {
	return &chatQueue{
		pending: make(map[int64][]func()),
		slots:   make(chan struct{}, limit),
	}
}

// Submit queues fn behind earlier work for chatID. It never blocks on running work.
func (q *chatQueue) Submit(chatID int64, fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()

	backlog, active := q.pending[chatID]
	q.pending[chatID] = append(backlog, fn)
	if !active {
		q.wg.Add(1)
		go q.drain(chatID)
	}
}

func (q *chatQueue) drain(chatID int64) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		backlog := q.pending[chatID]
		if len(backlog) == 0 {
			delete(q.pending, chatID)
			q.mu.Unlock()
			return
		}
		fn := backlog[0]
		q.pending[chatID] = backlog[1:]
		q.mu.Unlock()

		q.slots <- struct{}{}
		fn()
		<-q.slots
	}
}

// Wait blocks until every submitted item has run.
func (q *chatQueue) Wait() {
	q.wg.Wait()
}
