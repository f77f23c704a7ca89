// Package story defines the domain model shared by the generation
// pipeline, the repository and the interactive adventure engine.
package story

import (
	"fmt"
	"strings"
	"time"
)

// Language selects the language stories are written in.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageTurkish Language = "tr"
)

// Name returns the language name used inside model prompts.
func (l Language) Name() string {
	switch l {
	case LanguageTurkish:
		return "Turkish"
	default:
		return "English"
	}
}

// Category classifies a story for browsing.
type Category string

const (
	CategoryAdventure Category = "adventure"
	CategoryFantasy   Category = "fantasy"
	CategoryAnimals   Category = "animals"
	CategoryBedtime   Category = "bedtime"
	CategoryFolk      Category = "folk"
)

// AgeGroup is the reader age bracket a story is written for.
type AgeGroup string

const (
	AgeGroupBaby    AgeGroup = "1-3"
	AgeGroupToddler AgeGroup = "3-5"
	AgeGroupKid     AgeGroup = "6-9"
	AgeGroupPreteen AgeGroup = "10+"
)

// Length selects the approximate size of a generated story.
type Length string

const (
	LengthShort  Length = "short"
	LengthMedium Length = "medium"
	LengthLong   Length = "long"
)

// WordTarget returns the approximate word count requested from the model.
func (l Length) WordTarget() int {
	switch l {
	case LengthShort:
		return 150
	case LengthLong:
		return 600
	default:
		return 350
	}
}

// Option is one of the choices offered at the end of an interactive turn.
type Option struct {
	Text string `json:"text"`
}

// Word is an optional vocabulary entry attached to a story.
type Word struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Example    string `json:"example,omitempty"`
}

// Story is the unit of content the application manages. Catalog stories
// ship with the binary; generated stories carry the gen_ id prefix.
type Story struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Category      Category  `json:"category"`
	AgeGroup      AgeGroup  `json:"ageGroup"`
	Language      Language  `json:"language"`
	Author        string    `json:"author,omitempty"`
	CoverImage    string    `json:"coverImage,omitempty"`
	AudioData     string    `json:"audioData,omitempty"`
	ColoringPage  string    `json:"coloringPage,omitempty"`
	UserRecording string    `json:"userRecording,omitempty"`
	Interactive   bool      `json:"interactive,omitempty"`
	Choices       []Option  `json:"choices,omitempty"`
	WordOfTheDay  *Word     `json:"wordOfTheDay,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// GeneratedIDPrefix marks stories produced at runtime as opposed to
// catalog entries.
const GeneratedIDPrefix = "gen_"

// ParagraphSeparator joins interactive story segments.
const ParagraphSeparator = "\n\n"

// NewGeneratedID returns a fresh id for a generated story.
func NewGeneratedID(now time.Time) string {
	return fmt.Sprintf("%s%d", GeneratedIDPrefix, now.UnixMilli())
}

// Generated reports whether the story was produced at runtime.
func (s *Story) Generated() bool {
	return strings.HasPrefix(s.ID, GeneratedIDPrefix)
}

// Concluded reports whether an interactive story has reached its ending.
// A concluded story offers no further choices and never regains any.
func (s *Story) Concluded() bool {
	return s.Interactive && len(s.Choices) == 0
}

// AppendSegment extends an interactive story with the next turn's text
// and replaces the pending choices. An empty choice set concludes the
// story.
func (s *Story) AppendSegment(segment string, choices []Option) {
	if segment != "" {
		if s.Content == "" {
			s.Content = segment
		} else {
			s.Content = s.Content + ParagraphSeparator + segment
		}
	}
	if len(choices) == 0 {
		s.Choices = nil
		return
	}
	s.Choices = choices
}

// Clone returns a deep copy so callers can hand out stories without
// sharing mutable slices.
func (s *Story) Clone() *Story {
	if s == nil {
		return nil
	}
	clone := *s
	if len(s.Choices) > 0 {
		clone.Choices = make([]Option, len(s.Choices))
		copy(clone.Choices, s.Choices)
	}
	if s.WordOfTheDay != nil {
		word := *s.WordOfTheDay
		clone.WordOfTheDay = &word
	}
	return &clone
}

// GenerationRequest captures the knobs a caller can set when asking for
// a new story. It is transient and never persisted.
type GenerationRequest struct {
	Prompt      string
	Language    Language
	AgeGroup    AgeGroup
	Category    Category
	Length      Length
	Interactive bool
}

// Normalize fills unset fields with defaults.
func (r GenerationRequest) Normalize() GenerationRequest {
	if r.Language == "" {
		r.Language = LanguageEnglish
	}
	if r.AgeGroup == "" {
		r.AgeGroup = AgeGroupToddler
	}
	if r.Category == "" {
		r.Category = CategoryFantasy
	}
	if r.Length == "" {
		r.Length = LengthMedium
	}
	return r
}

// Validate reports whether the request can be submitted.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return fmt.Errorf("generation request needs a non-empty prompt")
	}
	return nil
}
