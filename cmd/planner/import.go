package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/paiban/refrigerio/internal/database"
	"github.com/paiban/refrigerio/internal/repository"
	"github.com/paiban/refrigerio/internal/source"
	"github.com/paiban/refrigerio/pkg/model"
	"github.com/spf13/cobra"
)

func (c *cli) importCmd() *cobra.Command {
	var shiftsFile string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "把班次和话务量写入数据库",
		Long:  "读取班次JSON和话务量CSV（--profiles），在一个事务中写入数据库，供 /api/v1/simulation/stored 使用。",
		RunE: func(cmd *cobra.Command, args []string) error {
			if shiftsFile == "" && c.profiles == "" {
				return fmt.Errorf("需要 --shifts 或 --profiles")
			}
			if !c.cfg.Database.Enabled {
				return fmt.Errorf("未启用数据库，请设置 DB_ENABLED=true")
			}

			var (
				recs   []model.RawShiftRecord
				volume []model.VolumeRecord
				err    error
			)
			if shiftsFile != "" {
				if recs, err = source.ReadShiftsFile(shiftsFile); err != nil {
					return err
				}
			}
			if c.profiles != "" {
				if volume, err = source.ReadVolumeFile(c.profiles); err != nil {
					return err
				}
			}

			db, err := database.New(&c.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := db.Migrate(ctx); err != nil {
				return err
			}
			return importRecords(ctx, db, recs, volume, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&shiftsFile, "shifts", "", "班次JSON文件")
	return cmd
}

// importRecords 在一个事务中写入班次和话务量，任一失败全部回滚
func importRecords(ctx context.Context, db repository.TxDB, recs []model.RawShiftRecord, volume []model.VolumeRecord, out io.Writer) error {
	for i, rec := range recs {
		if rec.ID == "" {
			return fmt.Errorf("第 %d 条班次记录缺少ID", i+1)
		}
	}

	err := db.Transaction(ctx, func(tx *sql.Tx) error {
		if len(recs) > 0 {
			if err := repository.NewShiftRecordRepository(tx).SaveAll(ctx, recs); err != nil {
				return err
			}
		}
		if len(volume) > 0 {
			if err := repository.NewVolumeRepository(tx).Upsert(ctx, volume); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("导入失败: %w", err)
	}
	fmt.Fprintf(out, "已导入 %d 条班次、%d 条话务量\n", len(recs), len(volume))
	return nil
}
