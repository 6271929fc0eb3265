package logging

import (
	"github.com/stretchr/testify/mock"
)

// MockLogger records calls through testify's mock. Structured methods receive the
// key/value pairs as one []interface{} argument.
type MockLogger struct {
	mock.Mock
}

var _ Logger = (*MockLogger)(nil)

// SetupDefaultExpectations accepts every call, so tests only assert the ones they
// care about.
func (m *MockLogger) SetupDefaultExpectations() {
	for _, method := range []string{"Debug", "Info", "Warn", "Error", "Fatal", "Debugf", "Infof", "Warnf", "Errorf", "Fatalf"} {
		m.On(method, mock.Anything, mock.Anything).Maybe().Return()
	}
	m.On("With", mock.Anything).Maybe().Return(nil)
}

func (m *MockLogger) Debug(msg string, keysAndValues ...interface{}) { m.Called(msg, keysAndValues) }
func (m *MockLogger) Info(msg string, keysAndValues ...interface{})  { m.Called(msg, keysAndValues) }
func (m *MockLogger) Warn(msg string, keysAndValues ...interface{})  { m.Called(msg, keysAndValues) }
func (m *MockLogger) Error(msg string, keysAndValues ...interface{}) { m.Called(msg, keysAndValues) }
func (m *MockLogger) Fatal(msg string, keysAndValues ...interface{}) { m.Called(msg, keysAndValues) }

func (m *MockLogger) Debugf(template string, args ...interface{}) { m.Called(template, args) }
func (m *MockLogger) Infof(template string, args ...interface{})  { m.Called(template, args) }
func (m *MockLogger) Warnf(template string, args ...interface{})  { m.Called(template, args) }
func (m *MockLogger) Errorf(template string, args ...interface{}) { m.Called(template, args) }
func (m *MockLogger) Fatalf(template string, args ...interface{}) { m.Called(template, args) }

// With returns the mock itself unless the expectation supplies another Logger.
func (m *MockLogger) With(tags ...any) Logger {
	args := m.Called(tags)
	if l, ok := args.Get(0).(Logger); ok {
		return l
	}
	return m
}

// NoOpLogger discards everything. Components default to it when no logger is given.
type NoOpLogger struct{}

func NewNoOpLogger() Logger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Fatal(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debugf(template string, args ...interface{})    {}
func (n *NoOpLogger) Infof(template string, args ...interface{})     {}
func (n *NoOpLogger) Warnf(template string, args ...interface{})     {}
func (n *NoOpLogger) Errorf(template string, args ...interface{})    {}
func (n *NoOpLogger) Fatalf(template string, args ...interface{})    {}
func (n *NoOpLogger) With(tags ...interface{}) Logger                { return n }
