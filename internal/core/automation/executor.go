package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tracklane/tracklane-be/internal/core/activity"
	"github.com/tracklane/tracklane-be/internal/core/jobs"
	"github.com/tracklane/tracklane-be/internal/core/notification"
	"github.com/tracklane/tracklane-be/internal/core/outreach"
	"github.com/tracklane/tracklane-be/internal/core/research"
	"github.com/tracklane/tracklane-be/internal/modules/crm/models"
)

// ActionExecutor executes automation actions
type ActionExecutor struct {
	db            *gorm.DB
	notifications *notification.Service
	outreach      *outreach.Service
	activities    *activity.Service
	queue         *jobs.Queue
	webhooks      *WebhookClient

	// emit hands a follow-up event back to the dispatcher when an action
	// mutates an entity. The dispatcher processes it on the same goroutine so
	// the chain-depth counter is observed.
	emit func(Event)
}

// NewActionExecutor creates a new action executor
func NewActionExecutor(db *gorm.DB, notifications *notification.Service, outreachSvc *outreach.Service, activities *activity.Service, queue *jobs.Queue, webhooks *WebhookClient) *ActionExecutor {
	return &ActionExecutor{
		db:            db,
		notifications: notifications,
		outreach:      outreachSvc,
		activities:    activities,
		queue:         queue,
		webhooks:      webhooks,
	}
}

// SetEmitter registers the dispatcher callback for events produced by
// entity-mutating actions.
func (e *ActionExecutor) SetEmitter(emit func(Event)) {
	e.emit = emit
}

// Execute runs a single action and always returns a result; panics inside a
// handler are converted into a failed result.
func (e *ActionExecutor) Execute(ctx context.Context, action Action, actx ActionContext) (res ActionResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Action %s panicked: %v", action.Type, r)
			res = failure(action.Type, fmt.Sprintf("action panicked: %v", r))
		}
	}()

	log.Printf("🔧 Executing action: %s (automation: %s)", action.Type, actx.AutomationName)

	var result map[string]interface{}
	var err error

	switch action.Type {
	case ActionCreateTask:
		result, err = e.executeCreateTask(ctx, action, actx)
	case ActionUpdateField:
		result, err = e.executeUpdateField(ctx, action, actx)
	case ActionChangeStage:
		result, err = e.executeChangeStage(ctx, action, actx)
	case ActionChangeStatus:
		result, err = e.executeChangeStatus(ctx, action, actx)
	case ActionAssignOwner:
		result, err = e.executeAssignOwner(ctx, action, actx)
	case ActionSendNotification:
		result, err = e.executeSendNotification(ctx, action, actx)
	case ActionSendEmail:
		result, err = e.executeSendEmail(ctx, action, actx)
	case ActionEnrollInSequence:
		result, err = e.executeEnrollInSequence(ctx, action, actx)
	case ActionAddTag:
		result, err = e.executeAddTag(ctx, action, actx)
	case ActionRemoveTag:
		result, err = e.executeRemoveTag(ctx, action, actx)
	case ActionCreateActivity:
		result, err = e.executeCreateActivity(ctx, action, actx)
	case ActionRunAIResearch:
		result, err = e.executeRunAIResearch(ctx, action, actx)
	case ActionFireWebhook:
		result, err = e.executeFireWebhook(action, actx)
	default:
		err = fmt.Errorf("unknown action type: %s", action.Type)
	}

	if err != nil {
		log.Printf("❌ Action %s failed: %v", action.Type, err)
		return failure(action.Type, err.Error())
	}
	return success(action.Type, result)
}

// executeCreateTask inserts a task linked to the triggering entity
func (e *ActionExecutor) executeCreateTask(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	title, ok := action.Config["title"].(string)
	if !ok || title == "" {
		return nil, fmt.Errorf("title is required for create_task action")
	}

	task := models.Task{
		ProjectID: actx.ProjectID,
		Title:     e.replaceVariables(title, actx.Data),
		Status:    "open",
		Priority:  "normal",
	}

	if description, ok := action.Config["description"].(string); ok {
		task.Description = e.replaceVariables(description, actx.Data)
	}
	if priority, ok := action.Config["priority"].(string); ok && priority != "" {
		task.Priority = priority
	}
	if days, ok := toFloat64(action.Config["due_in_days"]); ok && days > 0 {
		due := time.Now().Add(time.Duration(days) * 24 * time.Hour)
		task.DueDate = &due
	}
	if ownerID, ok := configUUID(action.Config, "owner_id"); ok {
		task.OwnerID = &ownerID
	}

	// Link the task to the triggering entity
	entityID := actx.EntityID
	switch actx.EntityType {
	case EntityPerson:
		task.PersonID = &entityID
	case EntityOrganization:
		task.OrganizationID = &entityID
	case EntityOpportunity:
		task.OpportunityID = &entityID
	case EntityRFP:
		task.RFPID = &entityID
	}

	if err := e.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Printf("✅ Created task %s", task.ID)
	return map[string]interface{}{"task_id": task.ID.String()}, nil
}

// executeUpdateField writes one allowlisted field on the entity's own table.
// A custom_fields.<key> field is merged into the JSON map instead.
func (e *ActionExecutor) executeUpdateField(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	fieldName, ok := action.Config["field_name"].(string)
	if !ok || fieldName == "" {
		return nil, fmt.Errorf("field_name is required for update_field action")
	}
	value, hasValue := action.Config["value"]
	if !hasValue {
		return nil, fmt.Errorf("value is required for update_field action")
	}

	table := EntityTable(actx.EntityType)
	if table == "" {
		return nil, fmt.Errorf("unknown entity type: %s", actx.EntityType)
	}
	if !IsCustomField(fieldName) && !IsWritableField(actx.EntityType, fieldName) {
		return nil, fmt.Errorf("field %s is not writable on %s", fieldName, actx.EntityType)
	}

	query := e.db.WithContext(ctx).Table(table).
		Where("id = ? AND project_id = ?", actx.EntityID, actx.ProjectID)

	var result *gorm.DB
	if IsCustomField(fieldName) {
		patch, err := json.Marshal(map[string]interface{}{CustomFieldKey(fieldName): value})
		if err != nil {
			return nil, fmt.Errorf("failed to encode custom field value: %w", err)
		}
		result = query.Update("custom_fields", gorm.Expr("COALESCE(custom_fields, '{}'::jsonb) || ?::jsonb", string(patch)))
	} else {
		result = query.Update(fieldName, value)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update field: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%s %s not found in project", actx.EntityType, actx.EntityID)
	}

	e.emitFieldChanged(actx, fieldName, value)

	log.Printf("✅ Updated %s.%s on %s", table, fieldName, actx.EntityID)
	return map[string]interface{}{"field": fieldName}, nil
}

// executeChangeStage moves an opportunity to a new pipeline stage
func (e *ActionExecutor) executeChangeStage(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	if actx.EntityType != EntityOpportunity {
		return nil, fmt.Errorf("change_stage only applies to opportunities, got %s", actx.EntityType)
	}
	stage, ok := action.Config["stage"].(string)
	if !ok || stage == "" {
		return nil, fmt.Errorf("stage is required for change_stage action")
	}

	result := e.db.WithContext(ctx).Model(&models.Opportunity{}).
		Where("id = ? AND project_id = ?", actx.EntityID, actx.ProjectID).
		Update("stage", stage)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to change stage: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("opportunity %s not found in project", actx.EntityID)
	}

	e.emitTransition(actx, TriggerStageChanged, "stage", stage)

	log.Printf("✅ Opportunity %s moved to stage %s", actx.EntityID, stage)
	return map[string]interface{}{"stage": stage}, nil
}

// executeChangeStatus moves an RFP to a new status
func (e *ActionExecutor) executeChangeStatus(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	if actx.EntityType != EntityRFP {
		return nil, fmt.Errorf("change_status only applies to rfps, got %s", actx.EntityType)
	}
	status, ok := action.Config["status"].(string)
	if !ok || status == "" {
		return nil, fmt.Errorf("status is required for change_status action")
	}

	result := e.db.WithContext(ctx).Model(&models.RFP{}).
		Where("id = ? AND project_id = ?", actx.EntityID, actx.ProjectID).
		Update("status", status)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to change status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("rfp %s not found in project", actx.EntityID)
	}

	e.emitTransition(actx, TriggerRFPStatusChanged, "status", status)

	log.Printf("✅ RFP %s moved to status %s", actx.EntityID, status)
	return map[string]interface{}{"status": status}, nil
}

// executeAssignOwner sets owner_id on the entity after checking the target
// user is a project member
func (e *ActionExecutor) executeAssignOwner(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	ownerID, ok := configUUID(action.Config, "owner_id")
	if !ok {
		return nil, fmt.Errorf("owner_id is required for assign_owner action")
	}

	var memberCount int64
	err := e.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", actx.ProjectID, ownerID).
		Count(&memberCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check project membership: %w", err)
	}
	if memberCount == 0 {
		return nil, fmt.Errorf("user %s is not a member of the project", ownerID)
	}

	table := EntityTable(actx.EntityType)
	if table == "" {
		return nil, fmt.Errorf("unknown entity type: %s", actx.EntityType)
	}

	result := e.db.WithContext(ctx).Table(table).
		Where("id = ? AND project_id = ?", actx.EntityID, actx.ProjectID).
		Update("owner_id", ownerID)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to assign owner: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%s %s not found in project", actx.EntityType, actx.EntityID)
	}

	log.Printf("✅ Assigned %s %s to user %s", actx.EntityType, actx.EntityID, ownerID)
	return map[string]interface{}{"owner_id": ownerID.String()}, nil
}

// executeSendNotification fans out an in-app notification to configured users
func (e *ActionExecutor) executeSendNotification(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	recipients := configUUIDList(action.Config, "user_ids")
	if userID, ok := configUUID(action.Config, "user_id"); ok {
		recipients = append(recipients, userID)
	}
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required for send_notification action")
	}

	title, _ := action.Config["title"].(string)
	if title == "" {
		title = fmt.Sprintf("Automation: %s", actx.AutomationName)
	}
	message, _ := action.Config["message"].(string)

	entityID := actx.EntityID
	err := e.notifications.Send(ctx, actx.ProjectID, recipients, notification.Message{
		Title:      e.replaceVariables(title, actx.Data),
		Body:       e.replaceVariables(message, actx.Data),
		EntityType: actx.EntityType,
		EntityID:   &entityID,
		Data: map[string]interface{}{
			"automation_id": actx.AutomationID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}

	log.Printf("✅ Notified %d users", len(recipients))
	return map[string]interface{}{"recipients": len(recipients)}, nil
}

// executeSendEmail resolves a template and recipient and queues a draft for
// manual dispatch. No mail is sent from the execution path.
func (e *ActionExecutor) executeSendEmail(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	templateID, ok := configUUID(action.Config, "template_id")
	if !ok {
		return nil, fmt.Errorf("template_id is required for send_email action")
	}

	var template models.EmailTemplate
	err := e.db.WithContext(ctx).
		Where("id = ? AND project_id = ?", templateID, actx.ProjectID).
		First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("email template %s not found in project", templateID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load email template: %w", err)
	}

	toAddress, err := e.resolveRecipientAddress(ctx, actx)
	if err != nil {
		return nil, err
	}

	entityID := actx.EntityID
	automationID := actx.AutomationID
	draft := models.EmailDraft{
		ProjectID:    actx.ProjectID,
		TemplateID:   &templateID,
		ToAddress:    toAddress,
		Subject:      e.replaceVariables(template.Subject, actx.Data),
		Body:         e.replaceVariables(template.Body, actx.Data),
		Status:       "queued",
		EntityType:   actx.EntityType,
		EntityID:     &entityID,
		AutomationID: &automationID,
	}
	if err := e.db.WithContext(ctx).Create(&draft).Error; err != nil {
		return nil, fmt.Errorf("failed to queue email draft: %w", err)
	}

	log.Printf("✅ Queued email draft %s to %s", draft.ID, toAddress)
	return map[string]interface{}{"draft_id": draft.ID.String(), "to": toAddress}, nil
}

// resolveRecipientAddress finds an email address for the triggering entity:
// the entity itself when it is a person, or its linked primary contact.
func (e *ActionExecutor) resolveRecipientAddress(ctx context.Context, actx ActionContext) (string, error) {
	if actx.EntityType == EntityPerson {
		if email, ok := actx.Data["email"].(string); ok && email != "" {
			return email, nil
		}
		var person models.Person
		err := e.db.WithContext(ctx).
			Where("id = ? AND project_id = ?", actx.EntityID, actx.ProjectID).
			First(&person).Error
		if err != nil {
			return "", fmt.Errorf("failed to load person: %w", err)
		}
		if person.Email == "" {
			return "", fmt.Errorf("person %s has no email address", actx.EntityID)
		}
		return person.Email, nil
	}

	var person models.Person
	var err error
	switch actx.EntityType {
	case EntityOrganization:
		err = e.db.WithContext(ctx).
			Where("organization_id = ? AND project_id = ? AND is_primary_contact = ? AND email <> ''",
				actx.EntityID, actx.ProjectID, true).
			First(&person).Error
	case EntityOpportunity, EntityRFP:
		// These tables carry a primary-contact person_id
		table := EntityTable(actx.EntityType)
		err = e.db.WithContext(ctx).
			Where("id IN (SELECT person_id FROM "+table+" WHERE id = ? AND project_id = ?) AND email <> ''",
				actx.EntityID, actx.ProjectID).
			First(&person).Error
	default:
		return "", fmt.Errorf("cannot resolve a recipient address for entity type %s", actx.EntityType)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("no primary contact with an email address for %s %s", actx.EntityType, actx.EntityID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve recipient: %w", err)
	}
	return person.Email, nil
}

// executeEnrollInSequence enrolls a person into an outreach sequence
func (e *ActionExecutor) executeEnrollInSequence(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	if actx.EntityType != EntityPerson {
		return nil, fmt.Errorf("enroll_in_sequence only applies to people, got %s", actx.EntityType)
	}
	sequenceID, ok := configUUID(action.Config, "sequence_id")
	if !ok {
		return nil, fmt.Errorf("sequence_id is required for enroll_in_sequence action")
	}

	enrollment, err := e.outreach.Enroll(ctx, actx.ProjectID, sequenceID, actx.EntityID, "automation")
	if err != nil {
		return nil, fmt.Errorf("failed to enroll in sequence: %w", err)
	}

	if enrollment.AlreadyEnrolled {
		log.Printf("✅ Person %s already enrolled in sequence %s", actx.EntityID, sequenceID)
	} else {
		log.Printf("✅ Enrolled person %s in sequence %s", actx.EntityID, sequenceID)
	}
	return map[string]interface{}{
		"enrollment_id":    enrollment.EnrollmentID.String(),
		"already_enrolled": enrollment.AlreadyEnrolled,
	}, nil
}

// executeAddTag upserts the tag join row; duplicate adds are no-ops
func (e *ActionExecutor) executeAddTag(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	tagID, err := e.resolveProjectTag(ctx, action, actx)
	if err != nil {
		return nil, err
	}

	join := models.EntityTag{
		TagID:      tagID,
		EntityType: actx.EntityType,
		EntityID:   actx.EntityID,
	}
	err = e.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&join).Error
	if err != nil {
		return nil, fmt.Errorf("failed to add tag: %w", err)
	}

	log.Printf("✅ Tagged %s %s with tag %s", actx.EntityType, actx.EntityID, tagID)
	return map[string]interface{}{"tag_id": tagID.String()}, nil
}

// executeRemoveTag deletes the tag join row; removing an absent tag is a no-op
func (e *ActionExecutor) executeRemoveTag(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	tagID, err := e.resolveProjectTag(ctx, action, actx)
	if err != nil {
		return nil, err
	}

	err = e.db.WithContext(ctx).
		Where("tag_id = ? AND entity_type = ? AND entity_id = ?", tagID, actx.EntityType, actx.EntityID).
		Delete(&models.EntityTag{}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to remove tag: %w", err)
	}

	log.Printf("✅ Removed tag %s from %s %s", tagID, actx.EntityType, actx.EntityID)
	return map[string]interface{}{"tag_id": tagID.String()}, nil
}

// resolveProjectTag validates the configured tag exists in the project scope
func (e *ActionExecutor) resolveProjectTag(ctx context.Context, action Action, actx ActionContext) (uuid.UUID, error) {
	tagID, ok := configUUID(action.Config, "tag_id")
	if !ok {
		return uuid.Nil, fmt.Errorf("tag_id is required for %s action", action.Type)
	}

	var count int64
	err := e.db.WithContext(ctx).Model(&models.Tag{}).
		Where("id = ? AND project_id = ?", tagID, actx.ProjectID).
		Count(&count).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to check tag: %w", err)
	}
	if count == 0 {
		return uuid.Nil, fmt.Errorf("tag %s not found in project", tagID)
	}
	return tagID, nil
}

// executeCreateActivity logs an activity entry attributed to the automation
func (e *ActionExecutor) executeCreateActivity(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	title, ok := action.Config["title"].(string)
	if !ok || title == "" {
		return nil, fmt.Errorf("title is required for create_activity action")
	}
	body, _ := action.Config["body"].(string)
	activityType, _ := action.Config["activity_type"].(string)
	if activityType == "" {
		activityType = "note"
	}

	err := e.activities.LogForEntity(ctx, actx.ProjectID, actx.EntityType, actx.EntityID,
		activityType,
		e.replaceVariables(title, actx.Data),
		e.replaceVariables(body, actx.Data),
		map[string]interface{}{
			"automation_id":   actx.AutomationID.String(),
			"automation_name": actx.AutomationName,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	log.Printf("✅ Logged activity for %s %s", actx.EntityType, actx.EntityID)
	return nil, nil
}

// executeRunAIResearch enqueues a background research job; nothing runs
// synchronously here
func (e *ActionExecutor) executeRunAIResearch(ctx context.Context, action Action, actx ActionContext) (map[string]interface{}, error) {
	topic, ok := action.Config["topic"].(string)
	if !ok || topic == "" {
		return nil, fmt.Errorf("topic is required for run_ai_research action")
	}
	prompt, _ := action.Config["prompt"].(string)

	payload := research.Payload{
		ProjectID:    actx.ProjectID,
		EntityType:   actx.EntityType,
		EntityID:     actx.EntityID,
		Topic:        e.replaceVariables(topic, actx.Data),
		Prompt:       e.replaceVariables(prompt, actx.Data),
		AutomationID: actx.AutomationID,
	}
	job, err := e.queue.Enqueue(ctx, actx.ProjectID, research.JobType, payload, jobs.DefaultEnqueueOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue research job: %w", err)
	}

	log.Printf("✅ Enqueued research job %s", job.ID)
	return map[string]interface{}{"job_id": job.ID.String()}, nil
}

// executeFireWebhook POSTs the configured payload plus event metadata to an
// external URL. URL validation happens inside the webhook client.
func (e *ActionExecutor) executeFireWebhook(action Action, actx ActionContext) (map[string]interface{}, error) {
	targetURL, ok := action.Config["url"].(string)
	if !ok || targetURL == "" {
		return nil, fmt.Errorf("url is required for fire_webhook action")
	}

	payload := map[string]interface{}{}
	if userPayload, ok := action.Config["payload"].(map[string]interface{}); ok {
		for k, v := range userPayload {
			payload[k] = v
		}
	}
	payload["automation_id"] = actx.AutomationID.String()
	payload["automation_name"] = actx.AutomationName
	payload["project_id"] = actx.ProjectID.String()
	payload["entity_type"] = actx.EntityType
	payload["entity_id"] = actx.EntityID.String()
	payload["data"] = actx.Data

	statusCode, err := e.webhooks.Fire(targetURL, payload)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Webhook delivered: %d", statusCode)
	return map[string]interface{}{"status_code": statusCode}, nil
}

// emitFieldChanged hands a field.changed follow-up event to the dispatcher
func (e *ActionExecutor) emitFieldChanged(actx ActionContext, fieldName string, value interface{}) {
	if e.emit == nil {
		return
	}

	newData := copyData(actx.Data)
	if !IsCustomField(fieldName) {
		newData[fieldName] = value
	}

	e.emit(Event{
		ProjectID:    actx.ProjectID,
		TriggerType:  TriggerFieldChanged,
		EntityType:   actx.EntityType,
		EntityID:     actx.EntityID,
		Data:         newData,
		PreviousData: actx.Data,
		Metadata:     map[string]interface{}{"source_automation_id": actx.AutomationID.String()},
	})
}

// emitTransition hands a stage/status-change follow-up event to the dispatcher
func (e *ActionExecutor) emitTransition(actx ActionContext, triggerType, field string, value interface{}) {
	if e.emit == nil {
		return
	}

	newData := copyData(actx.Data)
	newData[field] = value

	e.emit(Event{
		ProjectID:    actx.ProjectID,
		TriggerType:  triggerType,
		EntityType:   actx.EntityType,
		EntityID:     actx.EntityID,
		Data:         newData,
		PreviousData: actx.Data,
		Metadata:     map[string]interface{}{"source_automation_id": actx.AutomationID.String()},
	})
}

// replaceVariables replaces {variable} placeholders with values from the
// event's data snapshot
func (e *ActionExecutor) replaceVariables(template string, data map[string]interface{}) string {
	if template == "" || data == nil {
		return template
	}

	re := regexp.MustCompile(`\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(template, func(match string) string {
		varName := strings.Trim(match, "{}")
		if value, exists := ResolveField(data, varName); exists {
			return fmt.Sprintf("%v", value)
		}
		return match
	})
}

func copyData(data map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
