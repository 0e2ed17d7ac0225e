package main

var opts = &options{}

type options struct {
	LogLevel string

	Title    string
	Image    string
	Location string
	Price    string
}
