/*
github.com/tcrain/nakxfer - Reliable bulk data transfer over UDP.
Copyright (C) 2020 The project authors - tcrain

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.

*/

/*
Basic logging functionality.
*/
package logging

import (
	"fmt"
	"log"

	"github.com/tcrain/nakxfer/config"
)

// setup the logging flags
func init() {
	if config.LoggingType == config.GOLOG {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}
}

// SetLevel changes the maximum level that will be output.
func SetLevel(lvl config.LogFmtLevel) {
	config.LoggingFmtLevel = lvl
}

// SetType changes the output type, it should be called before any logging happens.
func SetType(lt config.Logtype) {
	config.LoggingType = lt
	if lt == config.GOLOG {
		log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}
}

func output(prefix, msg string) {
	switch config.LoggingType {
	case config.GOLOG:
		// depth 3 is the caller of the exported function
		if err := log.Output(3, prefix+msg); err != nil {
			panic(err)
		}
	case config.FMT:
		fmt.Println(prefix + msg)
	default:
		panic("Invalid logging type")
	}
}

// Printf logs args accoring to format, regardless of the level.
func Printf(format string, args ...interface{}) {
	output("", fmt.Sprintf(format, args...))
}

// Print logs args, regardless of the level.
func Print(args ...interface{}) {
	output("", fmt.Sprint(args...))
}

// Errorf logs an error args using format.
func Errorf(format string, args ...interface{}) {
	if config.LoggingFmtLevel >= config.LOGERROR {
		output("ERR: ", fmt.Sprintf(format, args...))
	}
}

// Error logs an error args.
func Error(args ...interface{}) {
	if config.LoggingFmtLevel >= config.LOGERROR {
		output("ERR: ", fmt.Sprint(args...))
	}
}

// Warningf logs a warning args using format.
func Warningf(format string, args ...interface{}) {
	if config.LoggingFmtLevel >= config.LOGWARNING {
		output("WARN: ", fmt.Sprintf(format, args...))
	}
}

// Warning logs a warning args.
func Warning(args ...interface{}) {
	if config.LoggingFmtLevel >= config.LOGWARNING {
		output("WARN: ", fmt.Sprint(args...))
	}
}

// Infof logs an info message args using format.
func Infof(format string, args ...interface{}) {
	if config.LoggingFmtLevel >= config.LOGINFO {
		output("INFO: ", fmt.Sprintf(format, args...))
	}
}

// Info logs an info message args.
func Info(args ...interface{}) {
	if config.LoggingFmtLevel >= config.LOGINFO {
		output("INFO: ", fmt.Sprint(args...))
	}
}

// Debugf logs per packet events using format.
func Debugf(format string, args ...interface{}) {
	if config.LoggingFmtLevel >= config.LOGDEBUG {
		output("DEBUG: ", fmt.Sprintf(format, args...))
	}
}
