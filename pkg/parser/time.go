package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Schedule types understood by CalculateNextExecutionTime.
const (
	ScheduleInterval = "interval"
	ScheduleCron     = "cron"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseCronSpec parses a standard five field cron expression or a descriptor such as
// "@hourly" or "@every 10m".
func ParseCronSpec(spec string) (cron.Schedule, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("cron expression is empty")
	}
	schedule, err := cronParser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return schedule, nil
}

// CalculateNextExecutionTime returns the first activation strictly after current.
func CalculateNextExecutionTime(current time.Time, scheduleType string, timeInterval int64, cronExpression string) (time.Time, error) {
	switch scheduleType {
	case ScheduleInterval:
		if timeInterval <= 0 {
			return time.Time{}, fmt.Errorf("invalid time interval")
		}
		return current.Add(time.Duration(timeInterval) * time.Second), nil

	case ScheduleCron:
		schedule, err := ParseCronSpec(cronExpression)
		if err != nil {
			return time.Time{}, err
		}
		return schedule.Next(current), nil

	default:
		return time.Time{}, fmt.Errorf("unknown schedule type: %s", scheduleType)
	}
}

// NextCronTick returns the unix second of the first activation of spec after tick.
func NextCronTick(spec string, tick uint64) (uint64, error) {
	next, err := CalculateNextExecutionTime(time.Unix(int64(tick), 0).UTC(), ScheduleCron, 0, spec)
	if err != nil {
		return 0, err
	}
	return uint64(next.Unix()), nil
}
