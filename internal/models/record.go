package models

// CrmRecord is a Salesforce record as returned by the REST API. The schema is
// owned by Salesforce, so the record stays an open field map; only the fields
// the pipeline renders or maps are accessed by name.
type CrmRecord map[string]interface{}

// placeholder rendered in place of absent optional fields
const MissingFieldPlaceholder = "N/A"

// StringField returns the named field as a string, or MissingFieldPlaceholder
// when the field is absent, null, or not a string.
func (r CrmRecord) StringField(name string) string {
	if v, ok := r[name]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return MissingFieldPlaceholder
}

// ID returns the record identifier, empty if absent.
func (r CrmRecord) ID() string {
	if v, ok := r["Id"].(string); ok {
		return v
	}
	return ""
}

// Fields returns a copy of the record without the Salesforce REST "attributes"
// envelope, which carries object metadata rather than record data.
func (r CrmRecord) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(r))
	for k, v := range r {
		if k == "attributes" {
			continue
		}
		fields[k] = v
	}
	return fields
}
