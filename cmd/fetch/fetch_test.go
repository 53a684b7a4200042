package fetch_test

import (
	"testing"

	"fjacquet/dkb-qif/cmd/fetch"

	"github.com/stretchr/testify/assert"
)

func TestFetchCommand_Metadata(t *testing.T) {
	assert.Equal(t, "fetch", fetch.Cmd.Use)
	assert.Contains(t, fetch.Cmd.Short, "DKB Visa transactions")
	assert.Contains(t, fetch.Cmd.Long, "DKB_PIN")
	assert.NotNil(t, fetch.Cmd.Run)
}

func TestFetchCommand_Flags(t *testing.T) {
	useridFlag := fetch.Cmd.Flags().Lookup("userid")
	if assert.NotNil(t, useridFlag) {
		assert.Equal(t, "u", useridFlag.Shorthand)
	}

	cardidFlag := fetch.Cmd.Flags().Lookup("cardid")
	if assert.NotNil(t, cardidFlag) {
		assert.Equal(t, "c", cardidFlag.Shorthand)
	}

	assert.NotNil(t, fetch.Cmd.Flags().Lookup("from-date"))
	assert.NotNil(t, fetch.Cmd.Flags().Lookup("to-date"))
	assert.NotNil(t, fetch.Cmd.Flags().Lookup("qif-account"))
	assert.NotNil(t, fetch.Cmd.Flags().Lookup("category"))
	assert.NotNil(t, fetch.Cmd.Flags().Lookup("session-file"))
	assert.NotNil(t, fetch.Cmd.Flags().Lookup("raw"))
}
