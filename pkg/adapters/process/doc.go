// Package process exposes allow-listed local commands as registry tools.
//
// Tools are declared in a tools.yaml file:
//
//	tools:
//	  - name: weather
//	    description: Current weather for a city
//	    command: ./scripts/weather.sh
//	    params:
//	      city: string
//	    timeout: 5s
//
// The script reads its arguments from STATEGRAPH_ARG_CITY.
package process
