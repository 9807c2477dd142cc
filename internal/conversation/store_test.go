package conversation

import (
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func senders(msgs []Message) []Sender {
	out := make([]Sender, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Sender)
	}
	return out
}

func TestStore_BeginThenComplete(t *testing.T) {
	s := NewStore()

	user, err := s.Begin("Show me patient 123 history")
	require.NoError(t, err)
	require.True(t, s.Pending())
	require.Equal(t, SenderUser, user.Sender)

	agent, err := s.Complete("**Diagnosis:** hypertension")
	require.NoError(t, err)
	require.False(t, s.Pending())
	require.Equal(t, SenderAgent, agent.Sender)

	history := s.History()
	want := []Message{
		{Sender: SenderUser, Text: "Show me patient 123 history"},
		{Sender: SenderAgent, Text: "**Diagnosis:** hypertension"},
	}
	if diff := cmp.Diff(want, history, cmpopts.IgnoreFields(Message{}, "ID", "CreatedAt")); diff != "" {
		t.Fatalf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_BeginWhileBusyIsRejected(t *testing.T) {
	s := NewStore()

	_, err := s.Begin("first")
	require.NoError(t, err)

	_, err = s.Begin("second")
	require.ErrorIs(t, err, ErrBusy)
	require.Len(t, s.History(), 1, "rejected send must not append")

	_, err = s.Complete("reply")
	require.NoError(t, err)

	_, err = s.Begin("third")
	require.NoError(t, err)
	assert.Equal(t, []Sender{SenderUser, SenderAgent, SenderUser}, senders(s.History()))
}

func TestStore_CompleteWithoutPending(t *testing.T) {
	s := NewStore()
	_, err := s.Complete("orphan")
	require.ErrorIs(t, err, ErrNotPending)
	require.Empty(t, s.History())
}

func TestStore_UserTextStoredVerbatim(t *testing.T) {
	s := NewStore()
	input := "  PATIENT ID 42   what are the latest labs?\t"

	msg, err := s.Begin(input)
	require.NoError(t, err)
	require.Equal(t, input, msg.Text)
	require.Equal(t, input, s.History()[0].Text)
}

func TestStore_Exchange(t *testing.T) {
	s := NewStore()

	user, agent, err := s.Exchange("hello", "Validation error: no patient ID")
	require.NoError(t, err)
	require.Equal(t, SenderUser, user.Sender)
	require.Equal(t, SenderAgent, agent.Sender)
	require.False(t, s.Pending())

	_, err = s.Begin("pending")
	require.NoError(t, err)
	_, _, err = s.Exchange("x", "y")
	require.ErrorIs(t, err, ErrBusy)
	require.Len(t, s.History(), 3)
}

func TestStore_HistoryIsACopy(t *testing.T) {
	s := NewStore()
	_, _, err := s.Exchange("a", "b")
	require.NoError(t, err)

	h := s.History()
	h[0].Text = "mutated"

	require.Equal(t, "a", s.History()[0].Text)
}

func TestStore_IDsSortInAppendOrder(t *testing.T) {
	s := NewStore()
	for i := 0; i < 20; i++ {
		_, _, err := s.Exchange("q", "a")
		require.NoError(t, err)
	}

	history := s.History()
	ids := make([]string, len(history))
	seen := make(map[string]bool)
	for i, m := range history {
		ids[i] = m.ID
		require.False(t, seen[m.ID], "duplicate id %s", m.ID)
		seen[m.ID] = true
	}
	require.True(t, sort.StringsAreSorted(ids))
}

func TestStore_ResetAndSnapshot(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	_, err := s.Begin("question")
	require.NoError(t, err)

	state := s.Snapshot()
	require.True(t, state.Pending)
	require.Len(t, state.History, 1)
	require.Equal(t, fixed, state.History[0].CreatedAt)

	require.ErrorIs(t, s.Reset(), ErrBusy)

	_, err = s.Complete("answer")
	require.NoError(t, err)
	require.NoError(t, s.Reset())
	require.Empty(t, s.History())
	require.False(t, s.Pending())
}
