package xq

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ToShowData converts a show to structured data.
// The caller can serialize this to JSON, YAML, or any other format.
func ToShowData(show *Show) ShowData {
	data := ShowData{
		Name:     show.Name,
		Settings: show.Settings,
		Targets:  show.Targets,
		Lists:    make([]CueListData, 0, len(show.Lists)),
	}
	for _, list := range show.Lists {
		data.Lists = append(data.Lists, ToCueListData(list))
	}
	return data
}

// ToCueListData converts a single cue list to structured data.
func ToCueListData(list *CueList) CueListData {
	listData := CueListData{Name: list.Name, Groups: make([]CueGroupData, 0, len(list.Groups))}
	for _, group := range list.Groups {
		groupData := CueGroupData{Name: group.Name, Cues: make([]CueData, 0, len(group.Cues))}
		for _, cue := range group.Cues {
			groupData.Cues = append(groupData.Cues, toCueData(cue))
		}
		listData.Groups = append(listData.Groups, groupData)
	}
	return listData
}

// ToJSON converts a show to JSON format.
func ToJSON(show *Show, indent bool) (string, error) {
	data := ToShowData(show)
	var result []byte
	var err error

	if indent {
		result, err = json.MarshalIndent(data, "", "  ")
	} else {
		result, err = json.Marshal(data)
	}

	if err != nil {
		return "", fmt.Errorf("failed to marshal show data: %w", err)
	}

	return string(result), nil
}

// ToYAML converts a show to YAML format, the same shape LoadShow reads.
func ToYAML(show *Show) (string, error) {
	result, err := yaml.Marshal(ToShowData(show))
	if err != nil {
		return "", fmt.Errorf("failed to marshal show data: %w", err)
	}
	return string(result), nil
}
