package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/tasktrackhq/tasktrack-api/internal/domain"
	"github.com/tasktrackhq/tasktrack-api/internal/platform/mailer"
)

// emailDateFormat renders timestamps inside email bodies.
const emailDateFormat = "January 2, 2006 at 3:04 PM"

// dueDateFormat renders due dates in the overdue digest.
const dueDateFormat = "January 2, 2006"

const assignmentHTMLBody = `<html>
<body>
<h2>You have been assigned a new task!</h2>
<p>Hello {{.AssigneeName}},</p>
<p>You have been assigned a new task by {{.ActorName}}.</p>
<div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
<h3>Task Details:</h3>
<p><strong>Task:</strong> {{.TaskTitle}}</p>
<p><strong>Project:</strong> {{.ProjectTitle}}</p>
<p><strong>Assigned by:</strong> {{.ActorName}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
</div>
<p>Please log in to your task management system to view the full details and update the task status.</p>
<p>Best regards,<br>Task Management System</p>
</body>
</html>
`

const assignmentTextBody = `You have been assigned a new task!

Hello {{.AssigneeName}},

You have been assigned a new task by {{.ActorName}}.

Task Details:
- Task: {{.TaskTitle}}
- Project: {{.ProjectTitle}}
- Assigned by: {{.ActorName}}
- Date: {{.Date}}

Please log in to your task management system to view the full details and update the task status.

Best regards,
Task Management System
`

const statusChangeHTMLBody = `<html>
<body>
<h2>Task Status Updated</h2>
<p>Hello {{.TargetName}},</p>
<p>A task's status has been updated by {{.ActorName}}.</p>
<div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
<h3>Task Details:</h3>
<p><strong>Task:</strong> {{.TaskTitle}}</p>
<p><strong>Project:</strong> {{.ProjectTitle}}</p>
<p><strong>Status Changed:</strong> {{.OldStatus}} to {{.NewStatus}}</p>
<p><strong>Changed by:</strong> {{.ActorName}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
</div>
<p>Please log in to your task management system to view the updated task details.</p>
<p>Best regards,<br>Task Management System</p>
</body>
</html>
`

const statusChangeTextBody = `Task Status Updated

Hello {{.TargetName}},

A task's status has been updated by {{.ActorName}}.

Task Details:
- Task: {{.TaskTitle}}
- Project: {{.ProjectTitle}}
- Status Changed: {{.OldStatus}} to {{.NewStatus}}
- Changed by: {{.ActorName}}
- Date: {{.Date}}

Please log in to your task management system to view the updated task details.

Best regards,
Task Management System
`

const overdueHTMLBody = `<html>
<body>
<h2>Daily Overdue Tasks Summary</h2>
<p>Hello {{.Name}},</p>
<p>You have {{.Count}} overdue task(s) that need your attention:</p>
{{range .Groups}}<div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0;">
<h3>Project: {{.Project}}</h3>
<ul>
{{range .Tasks}}<li><strong>{{.Title}}</strong> - Due: {{.Due}}<br><em>Status: {{.Status}}, Priority: {{.Priority}}</em></li>
{{end}}</ul>
</div>
{{end}}<p>Please log in to your task management system to update these tasks.</p>
<p>Best regards,<br>Task Management System</p>
</body>
</html>
`

const overdueTextBody = `Daily Overdue Tasks Summary

Hello {{.Name}},

You have {{.Count}} overdue task(s) that need your attention:
{{range .Groups}}
Project: {{.Project}}
{{range .Tasks}}- {{.Title}} (Due: {{.Due}}, Status: {{.Status}}, Priority: {{.Priority}})
{{end}}{{end}}
Please log in to your task management system to update these tasks.

Best regards,
Task Management System
`

var (
	assignmentHTML   = htmltemplate.Must(htmltemplate.New("assignment_html").Parse(assignmentHTMLBody))
	assignmentText   = texttemplate.Must(texttemplate.New("assignment_text").Parse(assignmentTextBody))
	statusChangeHTML = htmltemplate.Must(htmltemplate.New("status_change_html").Parse(statusChangeHTMLBody))
	statusChangeText = texttemplate.Must(texttemplate.New("status_change_text").Parse(statusChangeTextBody))
	overdueHTML      = htmltemplate.Must(htmltemplate.New("overdue_html").Parse(overdueHTMLBody))
	overdueText      = texttemplate.Must(texttemplate.New("overdue_text").Parse(overdueTextBody))
)

// assignmentView is the data rendered into the assignment templates.
type assignmentView struct {
	AssigneeName string
	ActorName    string
	TaskTitle    string
	ProjectTitle string
	Date         string
}

// statusChangeView is the data rendered into the status change templates.
type statusChangeView struct {
	TargetName   string
	ActorName    string
	TaskTitle    string
	ProjectTitle string
	OldStatus    string
	NewStatus    string
	Date         string
}

type overdueTaskView struct {
	Title    string
	Due      string
	Status   string
	Priority string
}

type overdueGroupView struct {
	Project string
	Tasks   []overdueTaskView
}

type overdueSummaryView struct {
	Name   string
	Count  int
	Groups []overdueGroupView
}

// ProjectTaskGroup is one project's slice of a user's overdue tasks.
type ProjectTaskGroup struct {
	Project *domain.Project
	Tasks   []*domain.Task
}

// ComposeAssignment builds the email telling the assignee about a new
// task. The message is addressed to the assignee.
func ComposeAssignment(
	now time.Time,
	task *domain.Task,
	project *domain.Project,
	assignee *domain.User,
	actor *domain.User,
) (mailer.Message, error) {
	view := assignmentView{
		AssigneeName: assignee.Name,
		ActorName:    actor.Name,
		TaskTitle:    task.Title,
		ProjectTitle: project.Title,
		Date:         now.Format(emailDateFormat),
	}

	htmlBody, err := renderHTML(assignmentHTML, view)
	if err != nil {
		return mailer.Message{}, err
	}
	textBody, err := renderText(assignmentText, view)
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:       assignee.Email,
		Subject:  "New Task Assigned: " + task.Title,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}, nil
}

// ComposeStatusChange builds the email telling the target user that a
// task they are assigned to moved between statuses.
func ComposeStatusChange(
	now time.Time,
	task *domain.Task,
	project *domain.Project,
	target *domain.User,
	actor *domain.User,
	oldStatus, newStatus domain.TaskStatus,
) (mailer.Message, error) {
	view := statusChangeView{
		TargetName:   target.Name,
		ActorName:    actor.Name,
		TaskTitle:    task.Title,
		ProjectTitle: project.Title,
		OldStatus:    statusLabel(string(oldStatus)),
		NewStatus:    statusLabel(string(newStatus)),
		Date:         now.Format(emailDateFormat),
	}

	htmlBody, err := renderHTML(statusChangeHTML, view)
	if err != nil {
		return mailer.Message{}, err
	}
	textBody, err := renderText(statusChangeText, view)
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:       target.Email,
		Subject:  "Task Status Updated: " + task.Title,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}, nil
}

// ComposeOverdueSummary builds the daily digest of a user's overdue
// tasks, grouped by project.
func ComposeOverdueSummary(user *domain.User, groups []ProjectTaskGroup) (mailer.Message, error) {
	view := overdueSummaryView{
		Name:   user.Name,
		Groups: make([]overdueGroupView, 0, len(groups)),
	}

	for _, group := range groups {
		groupView := overdueGroupView{
			Project: group.Project.Title,
			Tasks:   make([]overdueTaskView, 0, len(group.Tasks)),
		}
		for _, task := range group.Tasks {
			due := ""
			if task.DueDate != nil {
				due = task.DueDate.Format(dueDateFormat)
			}
			groupView.Tasks = append(groupView.Tasks, overdueTaskView{
				Title:    task.Title,
				Due:      due,
				Status:   statusLabel(string(task.Status)),
				Priority: statusLabel(string(task.Priority)),
			})
			view.Count++
		}
		view.Groups = append(view.Groups, groupView)
	}

	htmlBody, err := renderHTML(overdueHTML, view)
	if err != nil {
		return mailer.Message{}, err
	}
	textBody, err := renderText(overdueText, view)
	if err != nil {
		return mailer.Message{}, err
	}

	return mailer.Message{
		To:       user.Email,
		Subject:  fmt.Sprintf("Daily Summary: %d Overdue Tasks", view.Count),
		TextBody: textBody,
		HTMLBody: htmlBody,
	}, nil
}

func renderHTML(tmpl *htmltemplate.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func renderText(tmpl *texttemplate.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// statusLabel renders an enum value for email bodies: "in_progress"
// becomes "In Progress".
func statusLabel(s string) string {
	words := strings.Split(s, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
