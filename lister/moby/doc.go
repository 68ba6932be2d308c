/*
Package moby provides the Docker runtime lister plugin, registered under the
plugin name “docker”. It lists running containers through the Docker Engine
API.
*/
package moby
