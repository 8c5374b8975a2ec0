package parser

import (
	. "github.com/ttpr0/go-hybrid-routing/util"
)

//*******************************************
// parser structs
//*******************************************

type TempWay struct {
	ID   int64
	Refs []int64
	Tags Dict[string, string]
}
