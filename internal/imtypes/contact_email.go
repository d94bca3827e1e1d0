// internal/imtypes/contact_email.go
package imtypes

import "time"

// ContactEmail 是写入 Kafka 的联系表单邮件任务，由 mailworker 投递给邮件服务商。
type ContactEmail struct {
	ID          string            `json:"id"`
	ServiceID   string            `json:"serviceId"`
	TemplateID  string            `json:"templateId"`
	Params      map[string]string `json:"params"` // name, email, message
	SubmittedAt time.Time         `json:"submittedAt"`
}
