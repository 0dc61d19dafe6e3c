package services

import (
	"connect-system/internal/dto"
	"connect-system/internal/entities"
	"connect-system/pkg/utils"
)

const timeLayout = "2006-01-02 15:04:05"

func toOrderResponseDTO(o *entities.Order) dto.OrderResponseDTO {
	resp := dto.OrderResponseDTO{
		ID:                o.ID,
		ApplicationNumber: o.ApplicationNumber,
		Kind:              string(o.Kind),
		Status:            o.Status,
		ClientID:          o.ClientID,
		AssigneeRole:      o.AssigneeRole.Ptr(),
		Notes:             o.Notes.Ptr(),
		JMNotes:           o.JMNotes.Ptr(),
		ConsumedSummary:   o.ConsumedSummary.Ptr(),
		Rating:            o.Rating.Ptr(),
		CreatedAt:         o.CreatedAt.Local().Format(timeLayout),
		UpdatedAt:         o.UpdatedAt.Local().Format(timeLayout),
	}
	if o.AssigneeID.Valid {
		resp.AssigneeID = utils.ToPtr(o.AssigneeID.Uint64)
	}
	resp.Region = o.Region().Ptr()
	resp.Address = o.Address().Ptr()
	resp.Description = o.Description().Ptr()
	if d := o.Diagnostics(); d.Valid {
		resp.Diagnostics = d.Ptr()
	}
	if o.Connection != nil {
		resp.Tariff = o.Connection.Tariff.Ptr()
	}
	switch {
	case o.Technician != nil:
		resp.AbonentID = o.Technician.AbonentID.Ptr()
	case o.Staff != nil:
		resp.AbonentID = o.Staff.AbonentID.Ptr()
		resp.Phone = o.Staff.Phone.Ptr()
	}
	return resp
}

func toRoutingResultDTO(result *RoutingResult) dto.RoutingResultDTO {
	return dto.RoutingResultDTO{
		Order:       toOrderResponseDTO(&result.Order),
		FromStatus:  result.FromStatus,
		ToStatus:    result.ToStatus,
		CurrentLoad: result.CurrentLoad,
	}
}
