package cache

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Persisted keys. Dates inside the JSON values are ISO (2006-01-02) strings.
const (
	keyTimerSeconds = "studyTimerSeconds"
	keyRoutineState = "routineState"
	keyDailyLog     = "dailyStudyLog"
)

// DateFormat is the ISO day key used throughout the cache.
const DateFormat = "2006-01-02"

// maxStreak caps the backward scan over the daily log.
const maxStreak = 365

// TimerSeconds returns the persisted elapsed seconds of the study timer.
// A cache that has never seen the timer reads as 0.
func (c *Cache) TimerSeconds() (int, error) {
	v, err := c.Get(keyTimerSeconds)
	if err != nil {
		return 0, err
	}
	if v == "" {
		return 0, nil
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("corrupt timer value %q: %w", v, err)
	}
	return secs, nil
}

func (c *Cache) SetTimerSeconds(secs int) error {
	return c.Set(keyTimerSeconds, strconv.Itoa(secs))
}

// RoutineState returns the per-day completion map: date -> item ID -> done.
func (c *Cache) RoutineState() (map[string]map[string]bool, error) {
	state := make(map[string]map[string]bool)
	if err := c.getJSON(keyRoutineState, &state); err != nil {
		return nil, err
	}
	return state, nil
}

func (c *Cache) SetRoutineState(state map[string]map[string]bool) error {
	return c.setJSON(keyRoutineState, state)
}

// DailyLog returns minutes studied per day.
func (c *Cache) DailyLog() (map[string]int, error) {
	log := make(map[string]int)
	if err := c.getJSON(keyDailyLog, &log); err != nil {
		return nil, err
	}
	return log, nil
}

func (c *Cache) SetDailyLog(log map[string]int) error {
	return c.setJSON(keyDailyLog, log)
}

// SetDayMinutes records the total minutes for one day, dropping the entry
// when minutes reaches zero so empty days break the streak.
func (c *Cache) SetDayMinutes(date string, minutes int) error {
	log, err := c.DailyLog()
	if err != nil {
		return err
	}
	if minutes <= 0 {
		delete(log, date)
	} else {
		log[date] = minutes
	}
	return c.SetDailyLog(log)
}

func (c *Cache) getJSON(key string, out any) error {
	v, err := c.Get(key)
	if err != nil {
		return err
	}
	if v == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(v), out); err != nil {
		return fmt.Errorf("decode %q: %w", key, err)
	}
	return nil
}

func (c *Cache) setJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return c.Set(key, string(data))
}

// Streak counts consecutive days with recorded study time, scanning backward
// from today. The first zero or missing day ends the count.
func Streak(log map[string]int, today time.Time) int {
	streak := 0
	day := today
	for i := 0; i < maxStreak; i++ {
		if log[day.Format(DateFormat)] <= 0 {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// DayMinutes is one point of the study trend series.
type DayMinutes struct {
	Date    string
	Minutes int
}

// WeekTrend returns the last seven days (oldest first), zero-filled for days
// without entries.
func WeekTrend(log map[string]int, today time.Time) []DayMinutes {
	trend := make([]DayMinutes, 0, 7)
	for i := 6; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(DateFormat)
		trend = append(trend, DayMinutes{Date: date, Minutes: log[date]})
	}
	return trend
}
