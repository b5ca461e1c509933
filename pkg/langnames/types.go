package langnames

import "encoding/xml"

type LanguageRegistry struct {
	XMLName      xml.Name     `xml:"languageRegistry"`
	LanguageList LanguageList `xml:"languageList"`
}

type ConfigItem struct {
	ID          string `xml:"id"`
	Name        string `xml:"name"`
	Description string `xml:"description"`
}

type Language struct {
	ConfigItem ConfigItem `xml:"configItem"`
}

type LanguageList struct {
	Language []Language `xml:"language"`
}
