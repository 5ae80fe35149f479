package engine

import "log/slog"

// MessageID names a notification shown to the player.
type MessageID uint8

// IDs below messageYearlyLimit may be shown once per year; IDs below
// messagePersistentLimit once per game (or until the yearly reset for the
// first group).
const (
	MsgPollutionHigh         MessageID = 1
	MsgTrafficHigh           MessageID = 2
	MsgMoneyNegativeCanLoan  MessageID = 3
	MsgMoneyNegativeCantLoan MessageID = 4

	MsgClassTown       MessageID = 9
	MsgClassCity       MessageID = 10
	MsgClassMetropolis MessageID = 11
	MsgClassCapital    MessageID = 12
	MsgTechNuclear     MessageID = 13
	MsgTechFusion      MessageID = 14

	MsgFireStarted      MessageID = 17
	MsgNuclearMeltdown  MessageID = 18
	MsgLoanFinished     MessageID = 19
	MsgGameOver         MessageID = 20
	MsgGameOverFarewell MessageID = 21

	messageYearlyLimit     = 8
	messagePersistentLimit = 16
)

// MessageQueueSize is how many messages may wait for the host.
const MessageQueueSize = 10

var messageTexts = map[MessageID]string{
	MsgPollutionHigh:         "Pollution is too high!",
	MsgTrafficHigh:           "Traffic is too high!",
	MsgMoneyNegativeCanLoan:  "You have run out of money. Consider getting a loan.",
	MsgMoneyNegativeCantLoan: "You have run out of money!",
	MsgClassTown:             "Your village is now a town!",
	MsgClassCity:             "Your town is now a city!",
	MsgClassMetropolis:       "Your city is now a metropolis!",
	MsgClassCapital:          "Your metropolis is now a capital!",
	MsgTechNuclear:           "Scientists have invented nuclear power plants!",
	MsgTechFusion:            "Scientists have invented fusion power plants!",
	MsgFireStarted:           "A fire has started somewhere!",
	MsgNuclearMeltdown:       "A nuclear power plant has had a meltdown!",
	MsgLoanFinished:          "You have finished paying the loan.",
	MsgGameOver:              "The people are tired of you.",
	MsgGameOverFarewell:      "Game Over",
}

func (id MessageID) String() string {
	if s, ok := messageTexts[id]; ok {
		return s
	}
	return "unknown message"
}

// Messages is the pending notification queue plus the shown-once bits.
type Messages struct {
	queue []MessageID
	shown uint16 // bit n set once persistent message n was queued
}

// Push queues id. A full queue drops the new message.
func (m *Messages) Push(id MessageID) bool {
	if len(m.queue) >= MessageQueueSize {
		slog.Warn("message queue full, dropping", "message", id.String(), "id", id)
		return false
	}
	m.queue = append(m.queue, id)
	return true
}

// ShowPersistent queues id unless it was already shown.
func (m *Messages) ShowPersistent(id MessageID) {
	if id >= messagePersistentLimit {
		m.Push(id)
		return
	}
	bit := uint16(1) << id
	if m.shown&bit != 0 {
		return
	}
	if m.Push(id) {
		m.shown |= bit
	}
}

// ResetYearly re-arms the once-per-year warnings.
func (m *Messages) ResetYearly() {
	m.shown &^= 1<<messageYearlyLimit - 1
}

// Drain returns and clears the pending queue.
func (m *Messages) Drain() []MessageID {
	out := m.queue
	m.queue = nil
	return out
}

func (m *Messages) Pending() int { return len(m.queue) }

// Shown exposes the persistent bits for storage.
func (m *Messages) Shown() uint16 { return m.shown }

func (m *Messages) SetShown(bits uint16) { m.shown = bits }
