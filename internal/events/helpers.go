package events

import (
	"encoding/json"
	"fmt"
)

// SetDetectionData sets the Data field with DetectionData in a type-safe way.
func (e *ModeEvent) SetDetectionData(data DetectionData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert DetectionData to map: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetDetectionData retrieves the Data field as DetectionData.
func (e *ModeEvent) GetDetectionData() (*DetectionData, error) {
	var data DetectionData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse DetectionData: %w", err)
	}
	return &data, nil
}

// SetSwitchData sets the Data field with SwitchData in a type-safe way.
func (e *ModeEvent) SetSwitchData(data SwitchData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert SwitchData to map: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetSwitchData retrieves the Data field as SwitchData.
func (e *ModeEvent) GetSwitchData() (*SwitchData, error) {
	var data SwitchData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse SwitchData: %w", err)
	}
	return &data, nil
}

// SetHybridData sets the Data field with HybridData in a type-safe way.
func (e *ModeEvent) SetHybridData(data HybridData) error {
	dataMap, err := structToMap(data)
	if err != nil {
		return fmt.Errorf("failed to convert HybridData to map: %w", err)
	}
	e.Data = dataMap
	return nil
}

// GetHybridData retrieves the Data field as HybridData.
func (e *ModeEvent) GetHybridData() (*HybridData, error) {
	var data HybridData
	if err := mapToStruct(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse HybridData: %w", err)
	}
	return &data, nil
}

// structToMap converts a struct to map[string]interface{} using JSON marshaling.
func structToMap(data interface{}) (map[string]interface{}, error) {
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var result map[string]interface{}
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// mapToStruct converts a map[string]interface{} to a struct using JSON unmarshaling.
func mapToStruct(dataMap map[string]interface{}, target interface{}) error {
	bytes, err := json.Marshal(dataMap)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, target)
}
