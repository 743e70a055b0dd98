package server

import (
	"time"

	"duoduo-bargain/internal/domain/entity"
	"duoduo-bargain/internal/domain/service/bargain"
	"duoduo-bargain/pkg/lox"
	"duoduo-bargain/pkg/rest"
)

func newRESTUser(user entity.User) rest.User {
	return rest.User{
		ID:         user.ID,
		SecondMeID: user.SecondMeID,
		Name:       user.Name,
		Image:      user.Image,
		CreatedAt:  user.CreatedAt,
	}
}

func newRESTProduct(product entity.Product) rest.Product {
	return rest.Product{
		ID:           product.ID,
		Title:        product.Title,
		Description:  product.Description,
		PublishPrice: product.PublishPrice,
		ImageURL:     product.ImageURL,
		PublisherID:  product.PublisherID,
		Category:     product.Category,
		DurationDays: product.DurationDays,
		ExpiresAt:    product.ExpiresAt,
		Status:       product.Status.String(),
		CreatedAt:    product.CreatedAt,
		UpdatedAt:    product.UpdatedAt,
	}
}

func newRESTProducts(products []entity.Product) []rest.Product {
	return lox.Map(products, newRESTProduct)
}

func newRESTMessage(message entity.BargainMessage) rest.BargainMessage {
	return rest.BargainMessage{
		ID:         message.ID,
		SessionID:  message.SessionID,
		SenderID:   message.SenderID,
		SenderRole: message.SenderRole.String(),
		Content:    message.Content,
		Timestamp:  message.Timestamp,
		IsFromAI:   message.IsFromAI,
	}
}

func newRESTSession(session entity.BargainSession) rest.BargainSession {
	out := rest.BargainSession{
		ID:           session.ID,
		ProductID:    session.ProductID,
		PublisherID:  session.PublisherID,
		BargainerID:  session.BargainerID,
		PublishPrice: session.PublishPrice,
		TargetPrice:  session.TargetPrice,
		CurrentPrice: session.CurrentPrice,
		Status:       session.Status.String(),
		FinalPrice:   session.FinalPrice,
		CreatedAt:    session.CreatedAt,
		CompletedAt:  session.CompletedAt,
	}

	if len(session.Messages) > 0 {
		out.Messages = lox.Map(session.Messages, newRESTMessage)
	}

	return out
}

// newStreamEvent flattens a negotiation event into the wire frame.
func newStreamEvent(event bargain.Event) rest.StreamEvent {
	switch e := event.(type) {
	case bargain.MessageEvent:
		return rest.StreamEvent{
			Type: "message",
			Data: rest.StreamEventData{
				ID:         e.Message.ID,
				SenderID:   e.Message.SenderID,
				SenderRole: e.Message.SenderRole.String(),
				Content:    e.Message.Content,
				Timestamp:  e.Message.Timestamp.Format(time.RFC3339),
			},
		}
	case bargain.StatusEvent:
		return rest.StreamEvent{
			Type: "status",
			Data: rest.StreamEventData{Status: e.Status.String()},
		}
	case bargain.ErrorEvent:
		return rest.StreamEvent{
			Type: "error",
			Data: rest.StreamEventData{Error: e.Reason},
		}
	case bargain.CompleteEvent:
		finalPrice := e.FinalPrice

		return rest.StreamEvent{
			Type: "complete",
			Data: rest.StreamEventData{
				Status:     e.Status.String(),
				FinalPrice: &finalPrice,
			},
		}
	default:
		return rest.StreamEvent{Type: "error", Data: rest.StreamEventData{Error: "unknown event"}}
	}
}
