package main

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/paiban/refrigerio/internal/database"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportRecords(t *testing.T) {
	recs := []model.RawShiftRecord{{ID: "A1", AgentName: "Ana", Date: "2025-05-08", Schedule: "08:00 a 17:00"}}
	volume := []model.VolumeRecord{{DayType: model.DayWeekday, SlotStart: model.NewClock(8, 0), Calls: 40}}

	t.Run("一个事务写入", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_records")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO call_volume")).
			WithArgs("Hábil", "", 480, 40).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		var out bytes.Buffer
		require.NoError(t, importRecords(context.Background(), &database.DB{DB: sqlDB}, recs, volume, &out))
		assert.Contains(t, out.String(), "已导入 1 条班次、1 条话务量")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("话务量失败时班次回滚", func(t *testing.T) {
		sqlDB, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer sqlDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shift_records")).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO call_volume")).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		var out bytes.Buffer
		err = importRecords(context.Background(), &database.DB{DB: sqlDB}, recs, volume, &out)
		require.Error(t, err)
		assert.Empty(t, out.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("缺少ID", func(t *testing.T) {
		err := importRecords(context.Background(), nil, []model.RawShiftRecord{{Date: "2025-05-08"}}, nil, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

func TestImport_RequiresDatabase(t *testing.T) {
	t.Setenv("DB_ENABLED", "false")

	_, err := run(t, "import")
	assert.Error(t, err, "没有输入文件")

	_, err = run(t, "import", "--shifts", "turnos.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_ENABLED")
}
