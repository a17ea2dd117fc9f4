package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/aanand-mishra/students/internal/types"
)

var studentColumns = []string{"student_id", "first_name", "last_name", "email", "enrollment_date"}

// newTable creates a table with the defaults every listing uses.
func newTable(w io.Writer) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetHeader(studentColumns)
	return t
}

func printStudents(w io.Writer, students []types.Student) {
	if len(students) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	t := newTable(w)
	for _, s := range students {
		t.Append([]string{
			strconv.FormatInt(s.ID, 10),
			s.FirstName,
			s.LastName,
			s.Email,
			s.Enrolled(),
		})
	}
	t.Render()
}
