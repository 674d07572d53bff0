// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"testing"
	"time"
)

func TestLogDateRange(t *testing.T) {
	at := func(day, hour int) LogRecord {
		return LogRecord{Timestamp: time.Date(2025, time.March, day, hour, 0, 0, 0, time.UTC)}
	}

	tests := []struct {
		name string
		logs []LogRecord
		days int
	}{
		{"empty", nil, 0},
		{"single log", []LogRecord{at(3, 12)}, 1},
		{"same day", []LogRecord{at(3, 8), at(3, 22)}, 1},
		{"late night into early morning", []LogRecord{at(3, 23), at(4, 1)}, 2},
		{"under 24h per day still counts dates", []LogRecord{at(1, 23), at(7, 1)}, 7},
		{"unordered input", []LogRecord{at(5, 10), at(1, 10), at(3, 10)}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			earliest, latest, days := LogDateRange(tt.logs)
			if days != tt.days {
				t.Errorf("days = %d, want %d", days, tt.days)
			}
			if len(tt.logs) == 0 {
				return
			}
			for _, l := range tt.logs {
				if l.Timestamp.Before(earliest) || l.Timestamp.After(latest) {
					t.Errorf("range [%v, %v] excludes %v", earliest, latest, l.Timestamp)
				}
			}
		})
	}
}
