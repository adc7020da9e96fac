package fixture

import (
	"strings"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

type fileEntry struct {
	host     string
	path     []string
	size     int64
	created  string
	modified string
}

var fileEntries = []fileEntry{
	{"vali", []string{"Desktop", "ProjectAlpha", "Proposal.docx"}, 512000, "2023-07-10", "2023-08-01"},
	{"vali", []string{"Desktop", "ProjectAlpha", "Timeline.xlsx"}, 1048576, "2023-07-12", "2023-08-03"},
	{"vali", []string{"Desktop", "ToDoList.txt"}, 51200, "2023-08-05", "2023-08-10"},
	{"vali", []string{"Desktop", "MeetingNotes_August.pdf"}, 460800, "2023-08-15", "2023-08-15"},
	{"vidar", []string{"Desktop", "LaunchCodes.txt"}, 32500, "1973-08-05", "2023-08-10"},
	{"vidar", []string{"Desktop", "funtime.pdf"}, 460800, "2023-08-15", "2023-08-15"},
	{"vali", []string{"Documents", "Work", "ProjectAlpha", "Proposal.docx"}, 512000, "2023-07-10", "2023-08-01"},
	{"vali", []string{"Documents", "Work", "ProjectAlpha", "Timeline.xlsx"}, 1048576, "2023-07-12", "2023-08-03"},
	{"vali", []string{"Documents", "Work", "ProjectBeta", "Report.pdf"}, 1024000, "2023-06-22", "2023-07-15"},
	{"vali", []string{"Documents", "Work", "ProjectBeta", "Budget.xlsx"}, 1048576, "2023-06-25", "2023-07-18"},
	{"vidar", []string{"Documents", "Work", "Meetings", "TeamMeeting_August.pdf"}, 512000, "2023-08-20", "2023-08-21"},
	{"vidar", []string{"Documents", "Work", "Meetings", "ClientMeeting_July.pdf"}, 1048576, "2023-07-15", "2023-07-16"},
	{"vali", []string{"Documents", "Personal", "Taxes", "2022.pdf"}, 1024000, "2023-04-10", "2023-04-10"},
	{"vali", []string{"Documents", "Personal", "Taxes", "2021.pdf"}, 1048576, "2022-04-05", "2022-04-06"},
	{"vali", []string{"Documents", "Personal", "Taxes", "2020.pdf"}, 1024000, "2021-04-03", "2021-04-03"},
	{"vali", []string{"Pictures", "Vacation2019", "Beach.jpg"}, 1048576, "2019-07-10", "2019-07-12"},
	{"vali", []string{"Pictures", "Vacation2019", "Mountain.png"}, 2048000, "2019-07-11", "2019-07-13"},
	{"vali", []string{"Pictures", "Family", "Birthday2022.jpg"}, 3072000, "2022-12-15", "2022-12-20"},
	{"vali", []string{"Pictures", "Family", "Christmas2021.png"}, 2048000, "2021-12-25", "2021-12-26"},
	{"vali", []string{"Videos", "Vacation2019", "Beach.mov"}, 4194304, "2019-07-10", "2019-07-12"},
	{"vali", []string{"Videos", "Vacation2019", "Hiking.mp4"}, 4194304, "2019-07-15", "2019-07-16"},
	{"vali", []string{"Videos", "Family", "Birthday2022.mp4"}, 6291456, "2022-12-15", "2022-12-20"},
	{"vali", []string{"Videos", "Family", "Christmas2021.mov"}, 6291456, "2021-12-25", "2021-12-26"},
	{"vidar", []string{"Downloads", "SoftwareInstaller.exe"}, 2097152, "2023-08-01", "2023-08-01"},
	{"vidar", []string{"Downloads", "Receipt_OnlineStore.pdf"}, 1048576, "2023-08-05", "2023-08-05"},
	{"vali", []string{"Downloads", "Ebook.pdf"}, 1048576, "2023-08-08", "2023-08-08"},
}

// Files 文件树示例数据，路径拼接为 "/" 分隔的字符串
func Files() []domain.Row {
	rows := make([]domain.Row, len(fileEntries))
	for i, f := range fileEntries {
		rows[i] = domain.Row{
			"host":     f.host,
			"path":     strings.Join(f.path, "/"),
			"name":     f.path[len(f.path)-1],
			"size":     f.size,
			"created":  f.created,
			"modified": f.modified,
		}
	}
	return rows
}

// FileColumns 文件树示例的列定义
func FileColumns() []domain.ColumnDef {
	return []domain.ColumnDef{
		{Field: "host", Filter: domain.ColumnFilterText, Sortable: true},
		{Field: "path", Filter: domain.ColumnFilterText, Sortable: true},
		{Field: "name", Filter: domain.ColumnFilterText, Sortable: true},
		{Field: "size", Filter: domain.ColumnFilterNumber, Sortable: true},
		{Field: "created", Filter: domain.ColumnFilterText, Sortable: true},
		{Field: "modified", Filter: domain.ColumnFilterText, Sortable: true},
	}
}
