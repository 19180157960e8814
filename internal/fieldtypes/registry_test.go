package fieldtypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/formcraft/internal/models"
)

var allKinds = []models.FieldKind{
	models.KindShortText, models.KindLongText, models.KindEmail, models.KindPhone,
	models.KindURL, models.KindNumber, models.KindDate, models.KindTime,
	models.KindSingleChoice, models.KindMultipleChoice, models.KindDropdown,
	models.KindRating, models.KindScale, models.KindFileUpload,
	models.KindSectionHeading, models.KindDescriptionText, models.KindDivider,
}

func TestGetFieldTypeByID_Known(t *testing.T) {
	for _, k := range allKinds {
		ft, ok := GetFieldTypeByID(k)
		require.True(t, ok, k)
		assert.Equal(t, k, ft.ID)
	}
	assert.Len(t, GetAllFieldTypes(), len(allKinds))
}

func TestGetFieldTypeByID_Unknown(t *testing.T) {
	for _, k := range []models.FieldKind{"", "signature", "SHORT_TEXT"} {
		ft, ok := GetFieldTypeByID(k)
		assert.False(t, ok)
		assert.Empty(t, ft.ID)
	}
}

func TestGetFieldsByCategory_PreservesOrder(t *testing.T) {
	choice := GetFieldsByCategory(CategoryChoice)
	require.Len(t, choice, 3)
	assert.Equal(t, models.KindSingleChoice, choice[0].ID)
	assert.Equal(t, models.KindMultipleChoice, choice[1].ID)
	assert.Equal(t, models.KindDropdown, choice[2].ID)

	layout := GetFieldsByCategory(CategoryLayout)
	for _, ft := range layout {
		assert.True(t, ft.ID.IsLayout())
	}

	assert.Empty(t, GetFieldsByCategory("nope"))
}

func TestEveryEntryHasKnownCategory(t *testing.T) {
	cats := map[string]bool{}
	for _, c := range Categories() {
		cats[c] = true
	}
	for _, ft := range GetAllFieldTypes() {
		assert.True(t, cats[ft.Category], ft.ID)
		assert.True(t, ft.ID.Known(), ft.ID)
	}
}

func TestReturnedEntriesAreCopies(t *testing.T) {
	ft, _ := GetFieldTypeByID(models.KindDropdown)
	ft.DefaultConfig["label"] = "mutated"
	ft.DefaultConfig["options"].([]string)[0] = "mutated"

	again, _ := GetFieldTypeByID(models.KindDropdown)
	assert.Equal(t, "Select an option", again.DefaultConfig["label"])
	assert.Equal(t, "Option 1", again.DefaultConfig["options"].([]string)[0])
}

func TestNewField(t *testing.T) {
	f, err := NewField("q1", models.KindScale)
	require.NoError(t, err)
	assert.Equal(t, "q1", f.ID)
	assert.Equal(t, models.KindScale, f.Type)
	lo, hi := f.ScaleRange()
	assert.Equal(t, 1, lo)
	assert.Equal(t, 10, hi)
	assert.Equal(t, "Very likely", f.ScaleMaxLabel)

	_, err = NewField("q2", "signature")
	assert.Error(t, err)
}
