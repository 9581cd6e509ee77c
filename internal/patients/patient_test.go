package patients

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatient_Validate(t *testing.T) {
	p := Patient{FullName: "  Ana  "}
	require.NoError(t, p.Validate())
	assert.Equal(t, "Ana", p.FullName)
	assert.Equal(t, UnitKg, p.Unit)
	assert.NotNil(t, p.Metadata)

	p = Patient{FullName: "Ana", Unit: UnitLb}
	require.NoError(t, p.Validate())
	assert.Equal(t, UnitLb, p.Unit)

	p = Patient{FullName: " "}
	assert.ErrorIs(t, p.Validate(), ErrInvalidPatient)

	p = Patient{FullName: "Ana", Unit: "st"}
	assert.ErrorIs(t, p.Validate(), ErrInvalidPatient)
}
