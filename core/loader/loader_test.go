package loader

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type mockFeature struct {
	mock.Mock
}

func (m *mockFeature) Name() string {
	return m.Called().String(0)
}

func (m *mockFeature) IsEnabled() bool {
	return m.Called().Bool(0)
}

func (m *mockFeature) Load(app fiber.Router) error {
	return m.Called(app).Error(0)
}

func TestManager_LoadAll(t *testing.T) {
	app := fiber.New()

	enabled := new(mockFeature)
	enabled.On("Name").Return("compare")
	enabled.On("IsEnabled").Return(true)
	enabled.On("Load", mock.Anything).Return(nil)

	disabled := new(mockFeature)
	disabled.On("Name").Return("cache")
	disabled.On("IsEnabled").Return(false)

	mgr := NewManager(zap.NewNop())
	mgr.Register(enabled)
	mgr.Register(disabled)

	assert.NoError(t, mgr.LoadAll(app))
	assert.Len(t, mgr.Features(), 2)
	enabled.AssertCalled(t, "Load", mock.Anything)
	disabled.AssertNotCalled(t, "Load", mock.Anything)
}

func TestManager_LoadAll_Error(t *testing.T) {
	broken := new(mockFeature)
	broken.On("Name").Return("compare")
	broken.On("IsEnabled").Return(true)
	broken.On("Load", mock.Anything).Return(errors.New("no storage"))

	mgr := NewManager(nil)
	mgr.Register(broken)

	err := mgr.LoadAll(fiber.New())
	assert.EqualError(t, err, "failed to load feature compare: no storage")
}

func TestManager_LoadAll_Duplicate(t *testing.T) {
	f := new(mockFeature)
	f.On("Name").Return("compare")
	f.On("IsEnabled").Return(true)
	f.On("Load", mock.Anything).Return(nil)

	mgr := NewManager(nil)
	mgr.Register(f)
	mgr.Register(f)

	assert.EqualError(t, mgr.LoadAll(fiber.New()), "feature compare registered twice")
}
