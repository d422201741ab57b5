package http

import (
	"encoding/json"
	"time"

	"github.com/pjsousa/hello-stomp-live/internal/core"
	"github.com/pjsousa/hello-stomp-live/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeRegister:
		var reg proto.RegisterData
		if err := json.Unmarshal(inbound.Data, &reg); err != nil {
			return nil, malformedData(err)
		}
		if reg.Me == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Message: "me is required"}
		}
		return &core.Command{
			Kind:     core.CommandRegister,
			Identity: reg.Me,
			SendMe:   reg.SendMe,
			SendHere: reg.SendHere,
		}, nil
	case proto.InboundTypeSend:
		var send proto.SendData
		if err := json.Unmarshal(inbound.Data, &send); err != nil {
			return nil, malformedData(err)
		}
		return &core.Command{
			Kind:    core.CommandSendMessage,
			Target:  send.Target,
			Content: send.Content,
		}, nil
	case proto.InboundTypeSendMe:
		return valueCommand(core.CommandSetSendMe, inbound.Data)
	case proto.InboundTypeSendHere:
		return valueCommand(core.CommandSetSendHere, inbound.Data)
	case proto.InboundTypeSendUs:
		return valueCommand(core.CommandSetSendUs, inbound.Data)
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Message: "unknown frame type"}
	}
}

func malformedData(err error) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Message: "malformed frame data: " + err.Error()}
}

func valueCommand(kind core.CommandKind, data json.RawMessage) (*core.Command, *proto.Error) {
	var value proto.ValueData
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, malformedData(err)
	}
	return &core.Command{Kind: kind, Value: value.Value}, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Topic: messageTopic(event),
			Data:  chatMessagePayload(event.Message),
		}
	case core.EventOnlineUsers:
		return proto.Outbound{
			Topic: proto.TopicOnline,
			Data:  proto.OnlineUsers{Users: event.Users},
		}
	case core.EventSendUs:
		return proto.Outbound{
			Topic: proto.TopicGlobalSettings,
			Data:  proto.SendUs{Value: event.Value},
		}
	case core.EventSendMe:
		return proto.Outbound{
			Topic: proto.UserSettingsTopic(event.Identity),
			Data:  proto.SendMe{User: event.Identity, Value: event.Value},
		}
	case core.EventSendHere:
		return proto.Outbound{
			Topic: proto.DeviceControlTopic(event.SessionScope),
			Data:  proto.SendHere{SessionID: event.SessionScope, Value: event.Value},
		}
	case core.EventSnapshot:
		return proto.Outbound{
			Topic: proto.DeviceControlTopic(event.SessionScope),
			Data:  snapshotPayload(event.Snapshot),
		}
	case core.EventError:
		payload := proto.Error{Code: "unknown", Message: "unknown error"}
		if event.Error != nil {
			payload = proto.Error{Code: event.Error.Code, Message: event.Error.Message}
		}
		return proto.Outbound{
			Topic: proto.DeviceControlTopic(event.SessionScope),
			Data:  payload,
		}
	default:
		return proto.Outbound{}
	}
}

func messageTopic(event *core.Event) string {
	switch event.Message.Audience {
	case core.AudienceUser:
		return proto.UserMessagesTopic(event.UserScope)
	case core.AudienceDevice:
		return proto.DeviceMessagesTopic(event.SessionScope)
	default:
		return proto.TopicMessages
	}
}

func chatMessagePayload(m *core.Message) proto.ChatMessage {
	target := core.TargetEveryone
	switch m.Audience {
	case core.AudienceUser:
		target = m.TargetUser
	case core.AudienceDevice:
		target = m.TargetSession
	}
	return proto.ChatMessage{
		ID:        m.ID,
		Timestamp: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		Sender:    m.Sender,
		Target:    target,
		Audience:  string(m.Audience),
		Source:    string(m.Source),
		Content:   m.Content,
	}
}

func snapshotPayload(s *core.Snapshot) proto.Snapshot {
	recent := make([]proto.ChatMessage, 0, len(s.RecentMessages))
	for i := range s.RecentMessages {
		recent = append(recent, chatMessagePayload(&s.RecentMessages[i]))
	}
	return proto.Snapshot{
		SessionID:      s.SessionID,
		Me:             s.Me,
		SendMe:         s.SendMe,
		SendHere:       s.SendHere,
		SendUs:         s.SendUs,
		OnlineUsers:    s.OnlineUsers,
		RecentMessages: recent,
		AnimalOptions:  core.IdentityOptions,
		FoodOptions:    core.ValueOptions,
	}
}
