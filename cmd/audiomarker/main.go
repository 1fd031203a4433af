package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli"

	"github.com/relfax/audiomarker"
	"github.com/relfax/audiomarker/chapters"
	"github.com/relfax/audiomarker/model"
)

func main() {
	app := cli.NewApp()
	app.Name = "audiomarker"
	app.Usage = "reads and writes audio tags and chapter marks"
	app.Description = "an ID3v2/MP4 metadata and chapter tool"
	app.Version = "0.1.0"
	app.Commands = commands()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commands() []cli.Command {
	formatFlag := cli.StringFlag{
		Name:  "format",
		Usage: "chapter export format: podlove-json, podlove-xml, mp4chaps, ffmetadata, markdown, podcast-namespace, cuesheet",
		Value: "podlove-json",
	}

	return []cli.Command{
		{
			Name:   "title",
			Usage:  "Return title",
			Action: commandTitle,
		},
		{
			Name:   "artist",
			Usage:  "Return artist",
			Action: commandArtist,
		},
		{
			Name:   "album",
			Usage:  "Return album",
			Action: commandAlbum,
		},
		{
			Name:   "format",
			Usage:  "Identify the file's container (ID3, MP4, or Unknown)",
			Action: commandFormat,
		},
		{
			Name:   "chapters",
			Usage:  "Export chapters in the given format",
			Flags:  []cli.Flag{formatFlag},
			Action: commandChapters,
		},
		{
			Name:   "import-chapters",
			Usage:  "Import chapters from a file in the given format",
			Flags:  []cli.Flag{formatFlag},
			Action: commandImportChapters,
		},
		{
			Name:   "strip",
			Usage:  "Remove all metadata (chapters are kept)",
			Action: commandStrip,
		},
	}
}

func commandTitle(c *cli.Context) error {
	info, err := audiomarker.Read(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(info.Metadata.Title)
	return nil
}

func commandArtist(c *cli.Context) error {
	info, err := audiomarker.Read(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(info.Metadata.Artist)
	return nil
}

func commandAlbum(c *cli.Context) error {
	info, err := audiomarker.Read(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(info.Metadata.Album)
	return nil
}

func commandFormat(c *cli.Context) error {
	format, err := audiomarker.DetectFormat(c.Args().First())
	if err != nil {
		return err
	}
	fmt.Println(format)
	return nil
}

func commandChapters(c *cli.Context) error {
	format, err := parseFormatFlag(c.String("format"))
	if err != nil {
		return err
	}
	out, err := audiomarker.ExportChapters(c.Args().First(), format)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func commandImportChapters(c *cli.Context) error {
	format, err := parseFormatFlag(c.String("format"))
	if err != nil {
		return err
	}
	path := c.Args().First()
	chapterFile := c.Args().Get(1)

	data, err := os.ReadFile(chapterFile)
	if err != nil {
		return err
	}
	return audiomarker.ImportChapters(path, string(data), format)
}

func commandStrip(c *cli.Context) error {
	return audiomarker.Strip(c.Args().First())
}

func parseFormatFlag(s string) (model.ExportFormat, error) {
	switch s {
	case "podlove-json":
		return model.FormatPodloveJSON, nil
	case "podlove-xml":
		return model.FormatPodloveXML, nil
	case "mp4chaps":
		return model.FormatMP4Chaps, nil
	case "ffmetadata":
		return model.FormatFFMetadata, nil
	case "markdown":
		return model.FormatMarkdown, nil
	case "podcast-namespace":
		return model.FormatPodcastNamespace, nil
	case "cuesheet":
		return model.FormatCueSheet, nil
	default:
		return 0, &chapters.ExportError{Kind: chapters.UnsupportedFormat, Format: s, Reason: "unknown format name"}
	}
}
