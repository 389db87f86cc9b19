package domain

import "encoding/json"

type FieldValueType string

const (
	FieldValueText         FieldValueType = "text"
	FieldValueTranslations FieldValueType = "translationsWithParams"
	FieldValueChange       FieldValueType = "change"
)

// TranslationValue is a translation key plus interpolation params. Rendering
// to a locale happens in the UI.
type TranslationValue struct {
	Key    string            `json:"key"`
	Params map[string]string `json:"params,omitempty"`
}

// FieldValue is a tagged union discriminated by Type:
//
//	text                   -> Value
//	translationsWithParams -> ValuesWithParams
//	change                 -> Old, New (raw JSON)
type FieldValue struct {
	Type             FieldValueType     `json:"type"`
	Value            string             `json:"value,omitempty"`
	ValuesWithParams []TranslationValue `json:"valuesWithParams,omitempty"`
	Old              json.RawMessage    `json:"old,omitempty"`
	New              json.RawMessage    `json:"new,omitempty"`
}

func TextValue(value string) FieldValue {
	return FieldValue{Type: FieldValueText, Value: value}
}

func TranslationsValue(values ...TranslationValue) FieldValue {
	return FieldValue{Type: FieldValueTranslations, ValuesWithParams: values}
}

func ChangeValue(old, new json.RawMessage) FieldValue {
	return FieldValue{Type: FieldValueChange, Old: old, New: new}
}

type DisplayField struct {
	LabelKey   string     `json:"labelKey"`
	FieldValue FieldValue `json:"fieldValue"`
}
