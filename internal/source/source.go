// Package source 读写班次文件（JSON）和话务量文件（CSV）
package source

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paiban/refrigerio/pkg/calendar"
	"github.com/paiban/refrigerio/pkg/errors"
	"github.com/paiban/refrigerio/pkg/model"
)

// volumeHeader 话务量CSV的列
var volumeHeader = []string{"day_type", "skill", "slot_start", "calls"}

// shiftFile 班次文件的对象形式
type shiftFile struct {
	Shifts []model.RawShiftRecord `json:"shifts"`
}

// ReadShifts 读取班次JSON，接受数组或 {"shifts": [...]}
func ReadShifts(r io.Reader) ([]model.RawShiftRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取班次数据失败: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var recs []model.RawShiftRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "班次JSON格式错误")
		}
		return recs, nil
	}

	var file shiftFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "班次JSON格式错误")
	}
	return file.Shifts, nil
}

// ReadShiftsFile 读取班次文件
func ReadShiftsFile(path string) ([]model.RawShiftRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开班次文件失败: %w", err)
	}
	defer f.Close()
	return ReadShifts(f)
}

// WriteShifts 以数组形式写出班次
func WriteShifts(w io.Writer, recs []model.RawShiftRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(recs)
}

// ReadVolume 读取话务量CSV：day_type,skill,slot_start,calls，首行可为表头
func ReadVolume(r io.Reader) ([]model.VolumeRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(volumeHeader)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var records []model.VolumeRecord
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidProfile, "话务量CSV格式错误")
		}
		if line == 1 && strings.EqualFold(row[0], volumeHeader[0]) {
			continue
		}
		rec, appErr := parseVolumeRow(row)
		if appErr != nil {
			return nil, appErr.WithField("line", line)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadVolumeFile 读取话务量文件
func ReadVolumeFile(path string) ([]model.VolumeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开话务量文件失败: %w", err)
	}
	defer f.Close()
	return ReadVolume(f)
}

// ReadProfilesFile 读取话务量文件并构建曲线集合
func ReadProfilesFile(path string, slotMinutes int) (*model.ProfileSet, error) {
	records, err := ReadVolumeFile(path)
	if err != nil {
		return nil, err
	}
	return model.BuildProfiles(records, slotMinutes)
}

// WriteVolume 把曲线写成话务量CSV
func WriteVolume(w io.Writer, profiles []*model.CallVolumeProfile) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(volumeHeader); err != nil {
		return err
	}
	for _, p := range profiles {
		for _, slot := range p.Slots {
			row := []string{string(p.DayType), p.Skill, slot.Start.String(), strconv.Itoa(slot.Calls)}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func parseVolumeRow(row []string) (model.VolumeRecord, *errors.AppError) {
	day, ok := model.ParseDayType(strings.TrimSpace(row[0]))
	if !ok {
		return model.VolumeRecord{}, errors.New(errors.CodeInvalidProfile,
			fmt.Sprintf("未知的日期类型 '%s'", row[0]))
	}
	start, err := calendar.ParseClock(row[2])
	if err != nil {
		return model.VolumeRecord{}, errors.Wrap(err, errors.CodeInvalidProfile,
			fmt.Sprintf("时段 '%s' 无效", row[2]))
	}
	calls, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil || calls < 0 {
		return model.VolumeRecord{}, errors.New(errors.CodeInvalidProfile,
			fmt.Sprintf("来电量 '%s' 无效", row[3]))
	}
	return model.VolumeRecord{
		DayType:   day,
		Skill:     strings.TrimSpace(row[1]),
		SlotStart: start,
		Calls:     calls,
	}, nil
}
