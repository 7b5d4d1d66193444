package handlers

import (
	"time"

	"github.com/spec-kit/processflow/internal/api/dto"
	"github.com/spec-kit/processflow/internal/auth"
	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/events"
)

func userResponse(u *domain.User, withPermissions bool) dto.UserResponse {
	resp := dto.UserResponse{
		ID:              u.ID,
		TenantID:        u.TenantID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		Sector:          u.Sector,
		Team:            u.Team,
		Active:          u.Active,
		LinkedClientIDs: nonNil(u.LinkedClientIDs),
		CreatedAt:       u.CreatedAt,
		LastLoginAt:     u.LastLoginAt,
	}
	if withPermissions {
		for _, p := range auth.PermissionsFor(u.Role) {
			resp.Permissions = append(resp.Permissions, string(p))
		}
	}
	return resp
}

func stageResponse(s *domain.Stage) dto.StageResponse {
	return dto.StageResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		Color:       s.Color,
		Order:       s.Order,
		Active:      s.Active,
		Config: dto.StageConfigPayload{
			Editable:        s.Config.Editable,
			NotifyAfterDays: s.Config.NotifyAfterDays,
			Mandatory:       s.Config.Mandatory,
		},
		IsTerminal:  s.IsTerminal,
		AllowedNext: nonNil(s.AllowedNext),
	}
}

func stageList(stages []domain.Stage) []dto.StageResponse {
	out := make([]dto.StageResponse, 0, len(stages))
	for i := range stages {
		out = append(out, stageResponse(&stages[i]))
	}
	return out
}

func clientResponse(cl *domain.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:        cl.ID,
		Name:      cl.Name,
		Email:     cl.Email,
		Phone:     cl.Phone,
		Address:   cl.Address,
		Document:  cl.Document,
		Notes:     cl.Notes,
		Active:    cl.Active,
		CreatedAt: cl.CreatedAt,
	}
}

func movementResponses(records []domain.MovementRecord) []dto.MovementResponse {
	out := make([]dto.MovementResponse, 0, len(records))
	for _, r := range records {
		out = append(out, dto.MovementResponse{
			ID:              r.ID,
			PreviousStageID: r.PreviousStageID,
			NewStageID:      r.NewStageID,
			ActorID:         r.ActorID,
			ActorName:       r.ActorName,
			At:              r.At,
			Comment:         r.Comment,
			PreviousLoc:     r.PreviousLoc,
			NewLoc:          r.NewLoc,
			Automatic:       r.Automatic,
		})
	}
	return out
}

func orderResponse(o *domain.Order, now time.Time, withHistory bool) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:                o.ID,
		Number:            o.Number,
		ClientID:          o.ClientID,
		ClientName:        o.ClientName,
		Seller:            o.Seller,
		SaleDate:          o.SaleDate,
		FirstPaymentDate:  o.FirstPaymentDate,
		ExpectedDelivery:  o.ExpectedDelivery,
		DeliveredAt:       o.DeliveredAt,
		Product:           o.Product,
		Quantity:          o.Quantity,
		Packaging:         o.Packaging,
		FreightType:       o.FreightType,
		CurrentStageID:    o.CurrentStageID,
		Location:          o.Location,
		Courtesies:        nonNil(o.Courtesies),
		Shortages:         nonNil(o.Shortages),
		Notes:             o.Notes,
		Priority:          o.Priority,
		TotalValue:        o.TotalValue,
		ResponsibleUserID: o.ResponsibleUserID,
		Tags:              nonNil(o.Tags),
		Overdue:           o.IsOverdue(now),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if withHistory {
		resp.History = movementResponses(o.History)
	}
	return resp
}

func notificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		Title:     n.Title,
		Message:   n.Message,
		OrderID:   n.OrderID,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func chatMessageResponse(m *domain.ChatMessage) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{
		ID:         m.ID,
		ClientID:   m.ClientID,
		ClientName: m.ClientName,
		Sender:     m.Sender,
		Body:       m.Body,
		SentAt:     m.SentAt,
		Read:       m.Read,
	}
}

func conversationResponse(conv *domain.ChatConversation) dto.ConversationResponse {
	return dto.ConversationResponse{
		ID:            conv.ID,
		ClientID:      conv.ClientID,
		ClientName:    conv.ClientName,
		LastMessage:   conv.LastMessage,
		LastMessageAt: conv.LastMessageAt,
		UnreadCount:   conv.UnreadCount,
		Active:        conv.Active,
	}
}

func dashboardResponse(m domain.DashboardMetrics) dto.DashboardResponse {
	resp := dto.DashboardResponse{
		TotalOrders:       m.TotalOrders,
		ActiveOrders:      m.ActiveOrders,
		CompletedOrders:   m.CompletedOrders,
		OverdueOrders:     m.OverdueOrders,
		MonthRevenue:      m.MonthRevenue,
		AverageCycleDays:  m.AverageCycleDays,
		LeadConversionPct: m.LeadConversionPct,
		Bottlenecks:       make([]dto.BottleneckEntry, 0, len(m.Bottlenecks)),
		Targets:           make([]dto.StageTargetEntry, 0, len(m.Targets)),
		ComputedAt:        m.ComputedAt,
	}
	for _, b := range m.Bottlenecks {
		resp.Bottlenecks = append(resp.Bottlenecks, dto.BottleneckEntry{
			StageID: b.StageID, StageName: b.StageName, Count: b.Count, AverageDays: b.AverageDays,
		})
	}
	for _, t := range m.Targets {
		resp.Targets = append(resp.Targets, dto.StageTargetEntry{
			StageID: t.StageID, Target: t.Target, Current: t.Current, Percent: t.Percent,
		})
	}
	return resp
}

func tenantResponse(t *domain.Tenant) dto.TenantResponse {
	return dto.TenantResponse{
		ID:                 t.ID,
		Name:               t.Name,
		Domain:             t.Domain,
		Logo:               t.Logo,
		PrimaryColor:       t.PrimaryColor,
		SecondaryColor:     t.SecondaryColor,
		Active:             t.Active,
		AllowCustomization: t.Limits.AllowCustomization,
		MaxUsers:           t.Limits.MaxUsers,
		MaxOrders:          t.Limits.MaxOrders,
		CreatedAt:          t.CreatedAt,
	}
}

func settingsPayload(s *domain.Settings) dto.SettingsPayload {
	var p dto.SettingsPayload
	p.Notifications.EmailEnabled = s.Notifications.EmailEnabled
	p.Notifications.PushEnabled = s.Notifications.PushEnabled
	p.Notifications.OverdueWarningDays = s.Notifications.OverdueWarningDays
	p.Notifications.DueWarningDays = s.Notifications.DueWarningDays
	p.Backup.Automatic = s.Backup.Automatic
	p.Backup.Frequency = s.Backup.Frequency
	p.Backup.KeepMonths = s.Backup.KeepMonths
	p.Integration.WebhookURL = s.Integration.WebhookURL
	p.Integration.SendUpdates = s.Integration.SendUpdates
	return p
}

func settingsFromPayload(p dto.SettingsPayload) domain.Settings {
	return domain.Settings{
		Notifications: domain.NotificationSettings{
			EmailEnabled:       p.Notifications.EmailEnabled,
			PushEnabled:        p.Notifications.PushEnabled,
			OverdueWarningDays: p.Notifications.OverdueWarningDays,
			DueWarningDays:     p.Notifications.DueWarningDays,
		},
		Backup: domain.BackupSettings{
			Automatic:  p.Backup.Automatic,
			Frequency:  p.Backup.Frequency,
			KeepMonths: p.Backup.KeepMonths,
		},
		Integration: domain.IntegrationSettings{
			WebhookURL:  p.Integration.WebhookURL,
			SendUpdates: p.Integration.SendUpdates,
		},
	}
}

func activityResponse(e events.Event) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:         e.ID,
		Type:       string(e.Type),
		ResourceID: e.ResourceID,
		ActorID:    e.Actor.UserID,
		ActorName:  e.Actor.Name,
		Timestamp:  e.Timestamp,
		Payload:    e.Payload,
	}
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
