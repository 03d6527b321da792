package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportRecordValidate(t *testing.T) {
	valid := ExportRecord{ActorID: "u1", Report: "full", Format: "csv", Filename: "full_admin_report.csv", Rows: 3}
	assert.NoError(t, valid.Validate())

	missingActor := valid
	missingActor.ActorID = ""
	assert.Error(t, missingActor.Validate())

	missingFile := valid
	missingFile.Filename = ""
	assert.Error(t, missingFile.Validate())

	negative := valid
	negative.Rows = -1
	assert.Error(t, negative.Validate())
}

func TestRecorderNotInitialised(t *testing.T) {
	var r *Recorder
	assert.Error(t, r.Record(context.Background(), ExportRecord{}))
	_, err := NewRecorder(nil).Recent(context.Background(), 10)
	assert.Error(t, err)
}
