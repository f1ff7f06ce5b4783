package deck

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestStudyDay(t *testing.T) {
	is := is.New(t)

	// 2am belongs to the previous study day when the day starts at 4.
	late := time.Date(2024, 9, 23, 2, 30, 0, 0, time.UTC)
	is.Equal(StudyDay(late, 4), time.Date(2024, 9, 22, 0, 0, 0, 0, time.UTC))

	// 4am exactly opens the new day.
	boundary := time.Date(2024, 9, 23, 4, 0, 0, 0, time.UTC)
	is.Equal(StudyDay(boundary, 4), time.Date(2024, 9, 23, 0, 0, 0, 0, time.UTC))

	noon := time.Date(2024, 9, 23, 12, 0, 0, 0, time.UTC)
	is.Equal(StudyDay(noon, 4), time.Date(2024, 9, 23, 0, 0, 0, 0, time.UTC))
}

func TestDaysBetween(t *testing.T) {
	is := is.New(t)

	a := time.Date(2024, 9, 22, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 10, 2, 0, 0, 0, 0, time.UTC)
	is.Equal(DaysBetween(a, b), 10)
	is.Equal(DaysBetween(a, a), 0)
	is.Equal(DaysBetween(b, a), -10)
}
