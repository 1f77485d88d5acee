// ABOUTME: Wire projection of a survey response for the upload endpoint
// ABOUTME: Builds the surveys JSON array entry consumed by the server
package models

import "sort"

// UploadItem is the serialized shape of one survey response as the upload
// endpoint consumes it inside the surveys form field.
type UploadItem struct {
	SurveyKey           string           `json:"survey_key"`
	Time                int64            `json:"time"`
	Timezone            string           `json:"timezone"`
	SurveyID            string           `json:"survey_id"`
	SurveyLaunchContext LaunchContext    `json:"survey_launch_context"`
	LocationStatus      LocationStatus   `json:"location_status"`
	Responses           []PromptResponse `json:"responses"`
	Location            *Location        `json:"location,omitempty"`
}

// LaunchContext records when and in what timezone the survey was started.
type LaunchContext struct {
	LaunchTime     int64  `json:"launch_time"`
	LaunchTimezone string `json:"launch_timezone"`
}

// PromptResponse is one captured answer on the wire.
type PromptResponse struct {
	PromptID string `json:"prompt_id"`
	Value    any    `json:"value"`
}

// UploadItem projects the response into the wire shape. The submit
// timestamp becomes the response time; image records carry the asset uuid
// as their value and the binary payload travels separately in the images
// form field. Responses are ordered by prompt id so the payload is stable.
func (r *SurveyResponse) UploadItem() UploadItem {
	item := UploadItem{
		SurveyKey: r.Key,
		Timezone:  r.LaunchTimezone,
		SurveyID:  r.SurveyID,
		SurveyLaunchContext: LaunchContext{
			LaunchTime:     r.LaunchTime,
			LaunchTimezone: r.LaunchTimezone,
		},
		LocationStatus: r.LocationStatus,
		Location:       r.Location,
	}
	if r.SubmittedAt != nil {
		item.Time = r.SubmittedAt.UnixMilli()
	}

	ids := make([]string, 0, len(r.Responses))
	for id := range r.Responses {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		item.Responses = append(item.Responses, PromptResponse{
			PromptID: id,
			Value:    r.Responses[id].Value,
		})
	}
	return item
}
