package controllers

import (
	"io"
	"os"
	"testing"

	"github.com/yachtly/charter-service/internal/utils"
)

func TestMain(m *testing.M) {
	utils.Logger.SetOutput(io.Discard)
	os.Exit(m.Run())
}
