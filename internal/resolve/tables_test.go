package resolve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTables_PortalJSON(t *testing.T) {
	dir := t.TempDir()
	loc := writeFile(t, dir, "kc_location.json", `[
		{"课程名称": "分子生物学", "校区、授课教室": "茶山 X101"},
		{"课程名称": "医学统计学", "校区、授课教室": "学院路 Y2"}
	]`)
	roster := writeFile(t, dir, "kc_sutdent_map.json", `[
		{"课程名称": "分子生物学", "学生信息": [{"学号": "2023001", "姓名": "张三"}, {"学号": 2023002}]}
	]`)

	tables, missing, err := LoadTables(loc, roster)
	require.NoError(t, err)
	assert.Empty(t, missing)

	require.Len(t, tables.Locations, 2)
	assert.Equal(t, LocationEntry{CourseName: "分子生物学", Classroom: "茶山 X101"}, tables.Locations[0])

	require.Len(t, tables.Rosters, 1)
	assert.Equal(t, []Student{{StudentID: "2023001"}, {StudentID: "2023002"}}, tables.Rosters[0].Enrolled)
}

func TestLoadTables_SnakeCaseJSON(t *testing.T) {
	dir := t.TempDir()
	loc := writeFile(t, dir, "locations.json", `[{"course_name": "病理学", "classroom": "A1"}]`)
	roster := writeFile(t, dir, "rosters.json", `[{"course_name": "病理学", "enrolled": [{"student_id": "s1"}]}]`)

	tables, _, err := LoadTables(loc, roster)
	require.NoError(t, err)
	assert.Equal(t, "A1", tables.Locations[0].Classroom)
	assert.Equal(t, "s1", tables.Rosters[0].Enrolled[0].StudentID)
}

func TestLoadTables_Missing(t *testing.T) {
	dir := t.TempDir()
	missingPath := filepath.Join(dir, "nope.json")

	tables, missing, err := LoadTables(missingPath, "")
	require.NoError(t, err)
	assert.Equal(t, []string{missingPath}, missing)
	assert.Empty(t, tables.Locations)
	assert.Empty(t, tables.Rosters)
}

func TestLoadTables_Malformed(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{"not": "a list"`)

	_, _, err := LoadTables(bad, "")
	assert.Error(t, err)
}

func TestLoadTables_XLSX(t *testing.T) {
	dir := t.TempDir()

	locFile := excelize.NewFile()
	sheet := locFile.GetSheetName(0)
	require.NoError(t, locFile.SetSheetRow(sheet, "A1", &[]interface{}{"序号", "课程名称", "校区、授课教室"}))
	require.NoError(t, locFile.SetSheetRow(sheet, "A2", &[]interface{}{1, "分子生物学", "X101"}))
	require.NoError(t, locFile.SetSheetRow(sheet, "A3", &[]interface{}{2, "", "ignored"}))
	require.NoError(t, locFile.SetSheetRow(sheet, "A4", &[]interface{}{3, "医学统计学"}))
	locPath := filepath.Join(dir, "locations.xlsx")
	require.NoError(t, locFile.SaveAs(locPath))

	rosterFile := excelize.NewFile()
	sheet = rosterFile.GetSheetName(0)
	require.NoError(t, rosterFile.SetSheetRow(sheet, "A1", &[]interface{}{"学号", "姓名", "课程名称"}))
	require.NoError(t, rosterFile.SetSheetRow(sheet, "A2", &[]interface{}{"s1", "张三", "分子生物学"}))
	require.NoError(t, rosterFile.SetSheetRow(sheet, "A3", &[]interface{}{"s2", "李四", "医学统计学"}))
	require.NoError(t, rosterFile.SetSheetRow(sheet, "A4", &[]interface{}{"s3", "王五", "分子生物学"}))
	rosterPath := filepath.Join(dir, "rosters.xlsx")
	require.NoError(t, rosterFile.SaveAs(rosterPath))

	tables, missing, err := LoadTables(locPath, rosterPath)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.Equal(t, []LocationEntry{
		{CourseName: "分子生物学", Classroom: "X101"},
		{CourseName: "医学统计学", Classroom: ""},
	}, tables.Locations)

	require.Len(t, tables.Rosters, 2)
	assert.Equal(t, "分子生物学", tables.Rosters[0].CourseName)
	assert.Equal(t, []Student{{StudentID: "s1"}, {StudentID: "s3"}}, tables.Rosters[0].Enrolled)
	assert.Equal(t, []Student{{StudentID: "s2"}}, tables.Rosters[1].Enrolled)
}

func TestLoadTables_XLSXMissingColumn(t *testing.T) {
	dir := t.TempDir()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow(f.GetSheetName(0), "A1", &[]interface{}{"课程名称", "教师"}))
	path := filepath.Join(dir, "locations.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, _, err := LoadTables(path, "")
	assert.ErrorContains(t, err, "missing column")
}
