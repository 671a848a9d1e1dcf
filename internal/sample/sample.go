// Package sample defines the record shapes known by name to scenario files
// and the command line, and the person dataset used when no records are
// given.
package sample

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is an integer enum with text names, used to exercise enum coercion.
type Status int

const (
	StatusUnknown Status = iota
	StatusActive
	StatusSuspended
	StatusClosed
)

var statusNames = [...]string{"unknown", "active", "suspended", "closed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// UnmarshalText accepts a status name, ignoring case.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if strings.EqualFold(name, string(text)) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", text)
}

// Tier is an integer enum that only implements fmt.Stringer.
type Tier uint8

const (
	TierFree Tier = iota
	TierPro
	TierEnterprise
)

func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPro:
		return "pro"
	case TierEnterprise:
		return "enterprise"
	default:
		return fmt.Sprintf("Tier(%d)", uint8(t))
	}
}

// Address is a nested record.
type Address struct {
	Street string  `json:"street" yaml:"street"`
	City   string  `json:"city" yaml:"city"`
	Zip    *string `json:"zip,omitempty" yaml:"zip"`
}

// Person is the record shape most tests filter over. It covers every
// coercion target and every kind of member step.
type Person struct {
	ID       uuid.UUID         `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Age      int               `json:"age" yaml:"age"`
	Score    float64           `json:"score" yaml:"score"`
	Balance  decimal.Decimal   `json:"balance" yaml:"balance"`
	Active   bool              `json:"active" yaml:"active"`
	Status   Status            `json:"status" yaml:"status"`
	Tier     Tier              `json:"tier" yaml:"tier"`
	Joined   time.Time         `json:"joined" yaml:"joined"`
	Session  time.Duration     `json:"session" yaml:"session"`
	Nickname *string           `json:"nickname" yaml:"nickname"`
	Rank     *int              `json:"rank" yaml:"rank"`
	Tags     []string          `json:"tags" yaml:"tags"`
	Scores   []int             `json:"scores" yaml:"scores"`
	Address  *Address          `json:"address" yaml:"address"`
	Labels   map[string]string `json:"labels" yaml:"labels"`
	Extra    any               `json:"extra" yaml:"extra"`
}

func ptr[T any](v T) *T {
	return &v
}

// People returns a fresh copy of the shared person dataset.
//
//	ada    age 36, score 92.5, active, pro,  Berlin, tags go/rust
//	bob    age 17, score 80,   suspended,    no address, nickname "bobby"
//	carol  age 65, score 100,  active, enterprise, Paris, rank 1
//	dave   age 42, score 55.25, closed, no tags
func People() []Person {
	joined := func(s string) time.Time {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			panic(err)
		}
		return t
	}
	return []Person{
		{
			ID:      uuid.MustParse("6f1c2a8e-1b7d-4c1e-9a53-0b1f3c2d4e5f"),
			Name:    "Ada",
			Age:     36,
			Score:   92.5,
			Balance: decimal.RequireFromString("1250.75"),
			Active:  true,
			Status:  StatusActive,
			Tier:    TierPro,
			Joined:  joined("2021-03-14T09:26:53Z"),
			Session: 90 * time.Minute,
			Tags:    []string{"go", "rust"},
			Scores:  []int{90, 95},
			Address: &Address{Street: "Invalidenstrasse 1", City: "Berlin", Zip: ptr("10115")},
			Labels:  map[string]string{"team": "core"},
			Extra:   map[string]any{"level": 3},
		},
		{
			ID:       uuid.MustParse("0e9d8c7b-6a5f-4e3d-8c2b-1a0f9e8d7c6b"),
			Name:     "Bob",
			Age:      17,
			Score:    80,
			Balance:  decimal.Zero,
			Status:   StatusSuspended,
			Tier:     TierFree,
			Joined:   joined("2023-11-02T18:00:00Z"),
			Session:  5 * time.Minute,
			Nickname: ptr("bobby"),
			Tags:     []string{"js"},
			Scores:   []int{40},
		},
		{
			ID:      uuid.MustParse("a1b2c3d4-e5f6-4789-a0b1-c2d3e4f5a6b7"),
			Name:    "Carol",
			Age:     65,
			Score:   100,
			Balance: decimal.RequireFromString("99999.99"),
			Active:  true,
			Status:  StatusActive,
			Tier:    TierEnterprise,
			Joined:  joined("2019-07-01T00:00:00Z"),
			Session: 26 * time.Hour,
			Rank:    ptr(1),
			Tags:    []string{"go", "ops"},
			Scores:  []int{100},
			Address: &Address{Street: "Rue de Rivoli 9", City: "Paris"},
			Labels:  map[string]string{"team": "infra", "on-call": "yes"},
			Extra:   "vip",
		},
		{
			ID:      uuid.MustParse("f0e1d2c3-b4a5-4697-8879-6a5b4c3d2e1f"),
			Name:    "Dave",
			Age:     42,
			Score:   55.25,
			Balance: decimal.RequireFromString("-20.5"),
			Status:  StatusClosed,
			Tier:    TierFree,
			Joined:  joined("2022-01-31T12:30:00Z"),
			Address: &Address{Street: "Main St 5", City: "Boston", Zip: ptr("02108")},
		},
	}
}

// shapes maps the record shape names accepted by scenario files and the CLI.
var shapes = map[string]reflect.Type{
	"person":  reflect.TypeOf(Person{}),
	"address": reflect.TypeOf(Address{}),
	"map":     reflect.TypeOf(map[string]any{}),
}

// Shape returns the record type registered under name, ignoring case.
func Shape(name string) (reflect.Type, bool) {
	t, ok := shapes[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// ShapeNames returns the registered shape names in sorted order.
func ShapeNames() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
