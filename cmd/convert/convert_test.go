package convert_test

import (
	"testing"

	"fjacquet/dkb-qif/cmd/convert"

	"github.com/stretchr/testify/assert"
)

func TestConvertCommand_Metadata(t *testing.T) {
	assert.Equal(t, "convert", convert.Cmd.Use)
	assert.Contains(t, convert.Cmd.Short, "DKB CSV export")
	assert.Contains(t, convert.Cmd.Long, "QIF format")
	assert.NotNil(t, convert.Cmd.Run)
}

func TestConvertCommand_Flags(t *testing.T) {
	assert.NotNil(t, convert.Cmd.Flags().Lookup("qif-account"))
	assert.NotNil(t, convert.Cmd.Flags().Lookup("category"))
	assert.NotNil(t, convert.Cmd.Flags().Lookup("validate"))
	assert.NotNil(t, convert.Cmd.Flags().Lookup("table"))
}
