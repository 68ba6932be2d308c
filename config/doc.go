/*
Package config provides the dashboard configuration: the host name and protocol
used to build service URLs, as well as some cosmetics.

The configuration source is a single file in either JSON or YAML format, for
instance:

	{
	  "hostname": "nas.example.org",
	  "protocol": "https"
	}

A missing or malformed configuration source never fails startup: [Load] falls
back to the documented defaults (“localhost” and “http”) instead.
*/
package config
