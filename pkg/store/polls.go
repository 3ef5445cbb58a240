package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

func newUUID() string {
	return uuid.NewString()
}

// PollOption is one answer choice
type PollOption struct {
	ID        string `json:"option_id"`
	Text      string `json:"option"`
	IsCorrect bool   `json:"is_correct"`
}

// DraftPoll is a poll being composed. It can change freely until submitted.
type DraftPoll struct {
	ID       string        `json:"id"`
	Question string        `json:"question"`
	Options  []PollOption  `json:"options"`
	Timeout  time.Duration `json:"timeout"`
}

// Poll is a created poll. Only its ended status and submissions change later.
// Active is filled in on read from the ended set.
type Poll struct {
	ID        string        `json:"id"`
	Question  string        `json:"question"`
	Options   []PollOption  `json:"options"`
	CreatedAt time.Time     `json:"created_at"`
	Timeout   time.Duration `json:"timeout"`
	Active    bool          `json:"is_active"`
}

// HasCorrectAnswer reports whether any option is marked correct
func (p Poll) HasCorrectAnswer() bool {
	for _, o := range p.Options {
		if o.IsCorrect {
			return true
		}
	}
	return false
}

// Submission is one participant's answer
type Submission struct {
	PollID        string    `json:"poll_id"`
	ParticipantID string    `json:"participant_id"`
	OptionID      string    `json:"option_id"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// EndedPoll records when a poll was ended
type EndedPoll struct {
	PollID  string    `json:"poll_id"`
	EndedAt time.Time `json:"ended_at"`
}

func copyOptions(in []PollOption) []PollOption {
	return append([]PollOption(nil), in...)
}

// canCreatePolls checks the poll feature and the create permission
func (s *Store) canCreatePolls() error {
	if !s.session.Features.Poll {
		return ErrPollsDisabled
	}
	if !s.session.Permissions.CreatePoll {
		return ErrPollNotPermitted
	}
	return nil
}

// SaveDraft creates a draft, or replaces it when d.ID matches an existing draft.
// Options without an id get one.
func (s *Store) SaveDraft(d DraftPoll) (DraftPoll, error) {
	if err := s.canCreatePolls(); err != nil {
		return DraftPoll{}, err
	}
	d.Options = copyOptions(d.Options)
	for i := range d.Options {
		if d.Options[i].ID == "" {
			d.Options[i].ID = s.newID()
		}
	}

	err := s.update(FieldPolls, func(st *state) error {
		if d.ID != "" {
			for i := range st.drafts {
				if st.drafts[i].ID == d.ID {
					st.drafts[i] = d
					return nil
				}
			}
			return ErrDraftNotFound
		}
		d.ID = s.newID()
		st.drafts = append(st.drafts, d)
		return nil
	})
	return d, err
}

// Drafts returns the draft polls
func (s *Store) Drafts() []DraftPoll {
	var out []DraftPoll
	s.read(func(st *state) {
		for _, d := range st.drafts {
			d.Options = copyOptions(d.Options)
			out = append(out, d)
		}
	})
	return out
}

// RemoveDraft discards a draft
func (s *Store) RemoveDraft(id string) error {
	return s.update(FieldPolls, func(st *state) error {
		for i := range st.drafts {
			if st.drafts[i].ID == id {
				st.drafts = append(st.drafts[:i], st.drafts[i+1:]...)
				return nil
			}
		}
		return ErrDraftNotFound
	})
}

func validPoll(question string, options []PollOption) bool {
	if strings.TrimSpace(question) == "" {
		return false
	}
	n := 0
	for _, o := range options {
		if strings.TrimSpace(o.Text) != "" {
			n++
		}
	}
	return n >= 2 && n == len(options)
}

// SubmitDraft turns a draft into a created poll and removes the draft
func (s *Store) SubmitDraft(id string) (Poll, error) {
	if err := s.canCreatePolls(); err != nil {
		return Poll{}, err
	}
	var created Poll
	err := s.update(FieldPolls, func(st *state) error {
		for i := range st.drafts {
			d := st.drafts[i]
			if d.ID != id {
				continue
			}
			if !validPoll(d.Question, d.Options) {
				return ErrInvalidPoll
			}
			created = Poll{
				ID:        d.ID,
				Question:  d.Question,
				Options:   copyOptions(d.Options),
				CreatedAt: s.now(),
				Timeout:   d.Timeout,
			}
			st.created = append(st.created, created)
			st.drafts = append(st.drafts[:i], st.drafts[i+1:]...)
			return nil
		}
		return ErrDraftNotFound
	})
	if err != nil {
		return Poll{}, err
	}
	created.Active = true
	return created, nil
}

// CreatePoll composes and submits in one step
func (s *Store) CreatePoll(question string, options []PollOption, timeout time.Duration) (Poll, error) {
	d, err := s.SaveDraft(DraftPoll{Question: question, Options: options, Timeout: timeout})
	if err != nil {
		return Poll{}, err
	}
	p, err := s.SubmitDraft(d.ID)
	if err != nil {
		s.RemoveDraft(d.ID)
		return Poll{}, err
	}
	return p, nil
}

// EndPoll adds the poll to the ended set. Ending twice keeps the first time.
func (s *Store) EndPoll(id string) error {
	return s.update(FieldPolls, func(st *state) error {
		if findPoll(st, id) < 0 {
			return errors.Wrapf(ErrPollNotFound, "id %s", id)
		}
		if _, ok := st.ended[id]; !ok {
			st.ended[id] = s.now()
		}
		return nil
	})
}

func findPoll(st *state, id string) int {
	for i := range st.created {
		if st.created[i].ID == id {
			return i
		}
	}
	return -1
}

// IsActive is true iff the poll exists and its id is not in the ended set
func (s *Store) IsActive(id string) bool {
	var active bool
	s.read(func(st *state) {
		if findPoll(st, id) < 0 {
			return
		}
		_, ended := st.ended[id]
		active = !ended
	})
	return active
}

// Polls returns created polls in creation order with Active derived
func (s *Store) Polls() []Poll {
	var out []Poll
	s.read(func(st *state) {
		out = derivePolls(st)
	})
	return out
}

func derivePolls(st *state) []Poll {
	out := make([]Poll, 0, len(st.created))
	for _, p := range st.created {
		p.Options = copyOptions(p.Options)
		_, ended := st.ended[p.ID]
		p.Active = !ended
		out = append(out, p)
	}
	return out
}

// EndedPolls returns the ended set in creation order of the polls
func (s *Store) EndedPolls() []EndedPoll {
	var out []EndedPoll
	s.read(func(st *state) {
		for _, p := range st.created {
			if at, ok := st.ended[p.ID]; ok {
				out = append(out, EndedPoll{PollID: p.ID, EndedAt: at})
			}
		}
	})
	return out
}

// Submit records an answer to an active poll
func (s *Store) Submit(pollID, participantID, optionID string) error {
	return s.update(FieldPolls, func(st *state) error {
		i := findPoll(st, pollID)
		if i < 0 {
			return errors.Wrapf(ErrPollNotFound, "id %s", pollID)
		}
		if _, ended := st.ended[pollID]; ended {
			return ErrPollEnded
		}
		found := false
		for _, o := range st.created[i].Options {
			if o.ID == optionID {
				found = true
				break
			}
		}
		if !found {
			return ErrInvalidOption
		}
		for _, sub := range st.submissions {
			if sub.PollID == pollID && sub.ParticipantID == participantID {
				return ErrAlreadySubmitted
			}
		}
		st.submissions = append(st.submissions, Submission{
			PollID:        pollID,
			ParticipantID: participantID,
			OptionID:      optionID,
			SubmittedAt:   s.now(),
		})
		return nil
	})
}

// Submissions returns the answers for a poll, or all answers when pollID is empty
func (s *Store) Submissions(pollID string) []Submission {
	var out []Submission
	s.read(func(st *state) {
		for _, sub := range st.submissions {
			if pollID == "" || sub.PollID == pollID {
				out = append(out, sub)
			}
		}
	})
	return out
}

// Tally counts answers per option id
func (s *Store) Tally(pollID string) map[string]int {
	counts := make(map[string]int)
	for _, sub := range s.Submissions(pollID) {
		counts[sub.OptionID]++
	}
	return counts
}
