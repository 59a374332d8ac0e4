package metric

// Tag constants
const (
	TagEnv         = "env"
	TagService     = "service"
	TagModelType   = "model_type"
	TagDataset     = "dataset"
	TagJobState    = "job_state"
	TagSource      = "source"
	TagCategory    = "category"
	TagHttpStatus  = "http_status_code"
	TagFailureKind = "failure_kind"
)

type Tag struct {
	Name  string
	Value string
}

func NewTag(name, value string) Tag {
	return Tag{
		Name:  name,
		Value: value,
	}
}

// BuildTag builds a tag from the given name and value
func BuildTag(tags ...Tag) []string {
	allTags := make([]string, 0)
	for _, tag := range tags {
		allTags = append(allTags, TagAsString(tag.Name, tag.Value))
	}
	return allTags
}

func TagAsString(name string, value string) string {
	return name + ":" + value
}

func UpdateTags(tags *[]string, newTags ...Tag) {
	for _, tag := range newTags {
		*tags = append(*tags, TagAsString(tag.Name, tag.Value))
	}
}
