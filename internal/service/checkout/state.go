package checkout

import (
	"errors"
	"fmt"
	"slices"
)

// State — состояние одной попытки оформления заказа.
type State string

const (
	StateIdle          State = "idle"
	StateValidating    State = "validating"
	StateSubmitting    State = "submitting"
	StateReducingStock State = "reducing_stock"
	StateCompleted     State = "completed"
	StateRejected      State = "rejected"
	StateFailed        State = "failed"
)

// ErrIllegalTransition — попытка перейти в недопустимое состояние.
var ErrIllegalTransition = errors.New("illegal checkout state transition")

var transitions = map[State][]State{
	StateIdle:          {StateValidating},
	StateValidating:    {StateSubmitting, StateRejected},
	StateSubmitting:    {StateReducingStock, StateFailed},
	StateReducingStock: {StateCompleted},
}

// CanTransitionTo сообщает, разрешён ли переход from -> to.
func CanTransitionTo(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// IsTerminal сообщает, что из состояния нет переходов.
func (s State) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// machine хранит текущее состояние и историю переходов одной попытки.
type machine struct {
	state   State
	history []State
}

func newMachine() *machine {
	return &machine{state: StateIdle, history: []State{StateIdle}}
}

func (m *machine) transition(to State) error {
	if !CanTransitionTo(m.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, m.state, to)
	}
	m.state = to
	m.history = append(m.history, to)
	return nil
}

// fail переводит попытку в конечное состояние ошибки и возвращает её причину.
func (m *machine) fail(to State, cause error) error {
	if err := m.transition(to); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}
