package conversation

import (
	"errors"
	"sync"
	"testing"
)

func TestAppendAssignsMonotonicIDs(t *testing.T) {
	l := NewLog()

	first := l.Append(Message{Role: RoleUser, Text: "one", Language: "en"})
	second := l.Append(Message{Role: RoleAssistant, Text: "two", Language: "en"})

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() || second.CreatedAt.IsZero() {
		t.Error("timestamps not stamped")
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
}

func TestAppendIgnoresCallerID(t *testing.T) {
	l := NewLog()
	msg := l.Append(Message{ID: 99, Role: RoleUser, Text: "x", Language: "en"})
	if msg.ID != 1 {
		t.Errorf("id = %d, want assigned id 1", msg.ID)
	}
}

func TestGet(t *testing.T) {
	l := NewLog()
	stored := l.Append(Message{Role: RoleUser, Text: "hello", Language: "hi"})

	got, err := l.Get(stored.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Text != "hello" || got.Language != "hi" {
		t.Errorf("Get = %+v", got)
	}

	if _, err := l.Get(42); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("Get(42) = %v, want ErrMessageNotFound", err)
	}
}

func TestAttachAudioOnce(t *testing.T) {
	l := NewLog()
	msg := l.Append(Message{Role: RoleAssistant, Text: "spoken", Language: "en"})

	if err := l.AttachAudio(msg.ID, "handle-1"); err != nil {
		t.Fatalf("AttachAudio failed: %v", err)
	}

	got, _ := l.Get(msg.ID)
	if got.AudioHandle != "handle-1" {
		t.Errorf("audio handle = %q, want handle-1", got.AudioHandle)
	}

	if err := l.AttachAudio(msg.ID, "handle-2"); !errors.Is(err, ErrAudioAttached) {
		t.Errorf("second attach = %v, want ErrAudioAttached", err)
	}
	got, _ = l.Get(msg.ID)
	if got.AudioHandle != "handle-1" {
		t.Errorf("audio handle overwritten to %q", got.AudioHandle)
	}

	if err := l.AttachAudio(99, "h"); !errors.Is(err, ErrMessageNotFound) {
		t.Errorf("attach to missing message = %v, want ErrMessageNotFound", err)
	}
}

func TestMessagesSnapshotIsIsolated(t *testing.T) {
	l := NewLog()
	l.Append(Message{Role: RoleUser, Text: "a", Language: "en"})

	snap := l.Messages()
	snap[0].Text = "mutated"

	got, _ := l.Get(1)
	if got.Text != "a" {
		t.Errorf("snapshot mutation leaked into the log: %q", got.Text)
	}
}

func TestEachIsRestartableAndOrdered(t *testing.T) {
	l := NewLog()
	for _, text := range []string{"a", "b", "c"} {
		l.Append(Message{Role: RoleUser, Text: text, Language: "en"})
	}

	var seen []string
	l.Each(func(m Message) bool {
		seen = append(seen, m.Text)
		return len(seen) < 2
	})
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("partial walk = %v", seen)
	}

	seen = nil
	l.Each(func(m Message) bool {
		seen = append(seen, m.Text)
		return true
	})
	if len(seen) != 3 || seen[2] != "c" {
		t.Errorf("full walk = %v", seen)
	}
}

func TestLast(t *testing.T) {
	l := NewLog()
	if _, ok := l.Last(); ok {
		t.Error("Last() on empty log reported a message")
	}

	l.Append(Message{Role: RoleUser, Text: "a", Language: "en"})
	l.Append(Message{Role: RoleAssistant, Text: "b", Language: "en"})

	last, ok := l.Last()
	if !ok || last.Text != "b" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestConcurrentAppends(t *testing.T) {
	l := NewLog()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(Message{Role: RoleUser, Text: "m", Language: "en"})
		}()
	}
	wg.Wait()

	if l.Len() != 50 {
		t.Fatalf("Len() = %d, want 50", l.Len())
	}

	seen := make(map[int64]bool)
	for _, msg := range l.Messages() {
		if seen[msg.ID] {
			t.Errorf("duplicate id %d", msg.ID)
		}
		seen[msg.ID] = true
	}
}
