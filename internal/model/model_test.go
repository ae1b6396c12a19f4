package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventType(t *testing.T) {
	tests := []struct {
		input   string
		want    EventType
		wantErr bool
	}{
		{"meeting", EventMeeting, false},
		{"MEETING", EventMeeting, false},
		{"  Build ", EventBuild, false},
		{"competition", EventCompetition, false},
		{"outreach", EventOutreach, false},
		{"virtual", EventVirtual, false},
		{"none", EventNone, false},
		{"picnic", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseEventType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventType_Exhaustive(t *testing.T) {
	for _, et := range EventTypes() {
		assert.True(t, et.Valid(), "EventTypes() returned invalid %q", et)
	}
	assert.False(t, EventType("party").Valid())
	assert.Equal(t, "Meeting", EventMeeting.Title())
}

func TestStudent_Active(t *testing.T) {
	st := Student{ID: "1001", LastName: "Lovelace", GradYear: 2027}
	assert.True(t, st.Active())

	d := MustDate("2026-11-01")
	st.DeactivatedOn = &d
	assert.False(t, st.Active())
}

func TestStudent_Validate(t *testing.T) {
	valid := Student{ID: "1001", FirstName: "Ada", LastName: "Lovelace", GradYear: 2027}
	require.NoError(t, valid.Validate())

	missingID := valid
	missingID.ID = "  "
	assert.Error(t, missingID.Validate())

	missingLast := valid
	missingLast.LastName = ""
	assert.Error(t, missingLast.Validate())

	badYear := valid
	badYear.GradYear = 27
	assert.Error(t, badYear.Validate())
}

func TestEvent_Key(t *testing.T) {
	ev := Event{Date: MustDate("2027-01-01"), Type: EventVirtual}
	assert.Equal(t, "2027-01-01/virtual", ev.Key())
}

func TestCheckin_DateDerivesFromTimestamp(t *testing.T) {
	c := Checkin{Timestamp: MustDateTime("2027-01-01T17:30:00")}
	assert.Equal(t, "2027-01-01", c.Date().String())
}

func TestChoiceList_RoundTrip(t *testing.T) {
	c := ChoiceList{"Mechanical", "Software"}
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, `["Mechanical","Software"]`, v)

	var back ChoiceList
	require.NoError(t, back.Scan(v))
	assert.Equal(t, c, back)
}

func TestChoiceList_ScanBareString(t *testing.T) {
	// Pre-JSON rows stored a single choice as plain text.
	var c ChoiceList
	require.NoError(t, c.Scan("Robotics"))
	assert.Equal(t, ChoiceList{"Robotics"}, c)

	require.NoError(t, c.Scan(nil))
	assert.Nil(t, c)

	require.NoError(t, c.Scan(""))
	assert.Nil(t, c)
}

func TestChoiceList_NilValuesAsEmptyArray(t *testing.T) {
	var c ChoiceList
	v, err := c.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestSurvey_Validate(t *testing.T) {
	maxLen := 100
	tests := []struct {
		name    string
		survey  Survey
		wantErr bool
	}{
		{
			name:   "choices only",
			survey: Survey{Title: "Subgroup", Question: "Which one?", Choices: ChoiceList{"A"}},
		},
		{
			name:   "freetext only",
			survey: Survey{Title: "Snacks", Question: "Favorite?", AllowFreetext: true, MaxLength: &maxLen},
		},
		{
			name:    "no title",
			survey:  Survey{Question: "Which one?", Choices: ChoiceList{"A"}},
			wantErr: true,
		},
		{
			name:    "no question",
			survey:  Survey{Title: "Subgroup", Choices: ChoiceList{"A"}},
			wantErr: true,
		},
		{
			name:    "no choices and no freetext",
			survey:  Survey{Title: "Subgroup", Question: "Which one?"},
			wantErr: true,
		},
		{
			name:    "max length without freetext",
			survey:  Survey{Title: "Subgroup", Question: "Which one?", Choices: ChoiceList{"A"}, MaxLength: &maxLen},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.survey.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
