package factory

import (
	"time"

	"github.com/mcoot/digitguess/internal/dependencies/mocks"
	"github.com/mcoot/digitguess/internal/services/auth"
	"github.com/mcoot/digitguess/internal/services/solo"
	"github.com/mcoot/digitguess/internal/storage/memory"
	"github.com/mcoot/digitguess/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithSolo(solo.DefaultConfig())
}

// NewTestAppWithSolo is NewTestApp with a specific solo post-win policy
func NewTestAppWithSolo(soloCfg solo.Config) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(store, mockClock, mockRandom, auth.DefaultConfig(), soloCfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
