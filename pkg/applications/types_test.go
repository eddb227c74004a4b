package applications

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range AllStatuses() {
		assert.True(t, s.Valid(), "status %q should be valid", s)
	}
	assert.False(t, Status("").Valid())
	assert.False(t, Status("Released").Valid())
}

func TestApplication_IsOwnedBy(t *testing.T) {
	app := &Application{Applicant: &Applicant{ApplicantID: "user-1"}}

	assert.True(t, app.IsOwnedBy("user-1"))
	assert.False(t, app.IsOwnedBy("user-2"))
	assert.False(t, app.IsOwnedBy(""))

	t.Run("missing applicant", func(t *testing.T) {
		orphan := &Application{}
		assert.Equal(t, "", orphan.ApplicantID())
		assert.False(t, orphan.IsOwnedBy("user-1"))
	})

	t.Run("nil application", func(t *testing.T) {
		var nilApp *Application
		assert.Equal(t, "", nilApp.ApplicantID())
		assert.False(t, nilApp.IsOwnedBy("user-1"))
	})
}
