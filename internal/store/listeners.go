package store

import "ideawall/internal/plan"

// NoteListener receives note change notifications for one board.
type NoteListener func(id string, note Note, change ChangeType)

// EdgeListener receives edge change notifications for one board.
type EdgeListener func(id string, edge Edge, change ChangeType)

// TranscriptListener receives the bounded transcript window after each append.
type TranscriptListener func(entries []TranscriptEntry)

// OutputListener receives the latest AI output after each generation, or nil
// when history is cleared.
type OutputListener func(out *plan.AIOutput)

type noteSub struct {
	boardID string
	cb      NoteListener
}

type edgeSub struct {
	boardID string
	cb      EdgeListener
}

type transcriptSub struct {
	boardID string
	cb      TranscriptListener
}

type outputSub struct {
	boardID string
	cb      OutputListener
}

// ListenNotes registers a note listener for a board. The returned func
// unsubscribes; calling it more than once is harmless.
func (s *Store) ListenNotes(boardID string, cb NoteListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.noteSubs[id] = noteSub{boardID, cb}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.noteSubs, id)
	}
}

// ListenEdges registers an edge listener for a board.
func (s *Store) ListenEdges(boardID string, cb EdgeListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.edgeSubs[id] = edgeSub{boardID, cb}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.edgeSubs, id)
	}
}

// ListenTranscript registers a transcript stream listener for a board.
func (s *Store) ListenTranscript(boardID string, cb TranscriptListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.transcriptSubs[id] = transcriptSub{boardID, cb}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.transcriptSubs, id)
	}
}

// ListenLatestAIOutput registers a listener for new AI output records.
func (s *Store) ListenLatestAIOutput(boardID string, cb OutputListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.outputSubs[id] = outputSub{boardID, cb}
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.outputSubs, id)
	}
}

// emitNote fires note listeners synchronously, outside the registry lock so a
// callback may itself touch the store.
func (s *Store) emitNote(note Note, change ChangeType) {
	s.mu.Lock()
	var cbs []NoteListener
	for _, sub := range s.noteSubs {
		if sub.boardID == note.BoardID {
			cbs = append(cbs, sub.cb)
		}
	}
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(note.ID, note, change)
	}
}

func (s *Store) emitEdge(edge Edge, change ChangeType) {
	s.mu.Lock()
	var cbs []EdgeListener
	for _, sub := range s.edgeSubs {
		if sub.boardID == edge.BoardID {
			cbs = append(cbs, sub.cb)
		}
	}
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(edge.ID, edge, change)
	}
}

func (s *Store) emitTranscript(boardID string, entries []TranscriptEntry) {
	s.mu.Lock()
	var cbs []TranscriptListener
	for _, sub := range s.transcriptSubs {
		if sub.boardID == boardID {
			cbs = append(cbs, sub.cb)
		}
	}
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(entries)
	}
}

func (s *Store) emitOutput(boardID string, out *plan.AIOutput) {
	s.mu.Lock()
	var cbs []OutputListener
	for _, sub := range s.outputSubs {
		if sub.boardID == boardID {
			cbs = append(cbs, sub.cb)
		}
	}
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(out)
	}
}
