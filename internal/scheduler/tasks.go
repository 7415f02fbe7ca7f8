package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOutboundScan = "outbound.scan"

const TaskOutboundDial = "outbound.dial"

// OutboundScanPayload records what requested the scan.
type OutboundScanPayload struct {
	Reason  string `json:"reason"`
	BatchID string `json:"batchId,omitempty"`
}

// OutboundDialPayload is everything needed to place one call without
// re-reading the lead.
type OutboundDialPayload struct {
	LeadID    string  `json:"leadId"`
	Phone     string  `json:"phone"`
	FirstName string  `json:"firstName"`
	Company   *string `json:"company,omitempty"`
	Attempts  int     `json:"attempts"`
}

func NewOutboundScanTask(payload OutboundScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutboundScan, data), nil
}

func ParseOutboundScanPayload(task *asynq.Task) (OutboundScanPayload, error) {
	var payload OutboundScanPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutboundScanPayload{}, err
	}
	return payload, nil
}

func NewOutboundDialTask(payload OutboundDialPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOutboundDial, data), nil
}

func ParseOutboundDialPayload(task *asynq.Task) (OutboundDialPayload, error) {
	var payload OutboundDialPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OutboundDialPayload{}, err
	}
	return payload, nil
}
