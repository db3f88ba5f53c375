package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecordDerivesKey(t *testing.T) {
	rec := NewRecord("Villa, Hotel, Resort Sidemen", 2,
		[]string{AttrName, AttrVillage, AttrContact},
		[]string{"Villa Damai", "Sidemen", ""})

	assert.Equal(t, "Villa Damai", rec.Key.Name)
	assert.Equal(t, "Sidemen", rec.Key.Village)
	assert.Equal(t, 2, rec.Row)
}

func TestAttrHandlesShortRows(t *testing.T) {
	rec := NewRecord("p", 2,
		[]string{AttrName, AttrVillage, AttrContact},
		[]string{"Villa Damai"})

	assert.Equal(t, "Villa Damai", rec.Attr(AttrName))
	assert.Equal(t, "", rec.Attr(AttrContact), "short row reads as empty")
	assert.Equal(t, "", rec.Attr("No Such Column"))
}

func TestEmptyAttrsPreservesCandidateOrder(t *testing.T) {
	rec := NewRecord("p", 2,
		[]string{AttrName, AttrType, AttrVillage, AttrContact},
		[]string{"Villa Damai", "", "Sidemen", "   "})

	got := rec.EmptyAttrs([]string{AttrContact, AttrType, AttrName, AttrYearBuilt})
	// Blank, whitespace-only and absent columns all count as empty, in
	// the order the candidates were given.
	require.Equal(t, []string{AttrContact, AttrType, AttrYearBuilt}, got)
}

func TestEmptyAttrsNoneEmpty(t *testing.T) {
	rec := NewRecord("p", 2,
		[]string{AttrName, AttrVillage},
		[]string{"Villa Damai", "Sidemen"})

	assert.Nil(t, rec.EmptyAttrs([]string{AttrName, AttrVillage}))
}
