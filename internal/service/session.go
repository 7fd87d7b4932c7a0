package service

import (
	"github.com/MimeLyc/gemini-sub-translator/internal/llm"
	"github.com/MimeLyc/gemini-sub-translator/internal/translator"
)

// session is the mutable state of one Run.
type session struct {
	instruction string
	total       int
	startLine   int
	line        int
	batchSize   int

	batchNumber int
	attempt     int
	failures    int
	warnings    int

	conversation *llm.Conversation
	translated   map[string]string
}

func newSession(instruction string, total, startLine, batchSize int) *session {
	return &session{
		instruction:  instruction,
		total:        total,
		startLine:    startLine,
		line:         startLine,
		batchSize:    batchSize,
		conversation: llm.NewConversation(llm.DefaultContextPairs),
		translated:   make(map[string]string),
	}
}

// commit records a validated batch and moves the cursor past it.
func (s *session) commit(batch translator.Batch, request, answer string, items []translator.Item) {
	for _, item := range items {
		s.translated[item.Index] = item.Content
	}
	s.conversation.AddExchange(request, answer)
	s.line = batch.NextLine()
	s.failures = 0
	s.attempt = 0
}

// skip moves the cursor past a batch that has nothing to translate.
func (s *session) skip(batch translator.Batch) {
	for _, item := range batch.Items {
		s.translated[item.Index] = item.Content
	}
	s.line = batch.NextLine()
	s.failures = 0
	s.attempt = 0
}

// startBatch bumps the batch counter unless the batch is being retried.
func (s *session) startBatch() {
	if s.attempt == 0 {
		s.batchNumber++
	}
}

func (s *session) retry() {
	s.attempt++
}

func (s *session) done() bool {
	return s.line > s.total
}
